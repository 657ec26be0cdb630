package validator

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	askerrors "github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/generator"
	"github.com/Malumbo21/askdb/internal/llm"
	"github.com/Malumbo21/askdb/internal/logging"
)

// DefaultMaxAttempts bounds the revision loop per statement.
const DefaultMaxAttempts = 3

// Reviser resubmits failing SQL to the completion service for correction.
// The attempt counter is shared across all statements of one query turn and
// surfaced in the final outcome, so it is incremented atomically.
type Reviser struct {
	service     llm.Service
	maxAttempts int
	attempts    *atomic.Int32
}

// NewReviser creates a reviser. The counter may be shared with other
// revisers of the same turn; nil allocates a private one.
func NewReviser(service llm.Service, maxAttempts int, attempts *atomic.Int32) *Reviser {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	if attempts == nil {
		attempts = &atomic.Int32{}
	}

	return &Reviser{service: service, maxAttempts: maxAttempts, attempts: attempts}
}

// Attempts returns the number of revision calls made so far this turn.
func (r *Reviser) Attempts() int {
	return int(r.attempts.Load())
}

// Request carries the context one revision needs.
type Request struct {
	// Query is the original natural-language question.
	Query string
	// SQL is the statement that failed.
	SQL string
	// Errors is the concatenated error text from validation, dry-run or
	// execution.
	Errors string
	// SchemaDesc describes the relevant schema subset.
	SchemaDesc string
}

// Revise asks the completion service for a corrected statement.
func (r *Reviser) Revise(ctx context.Context, req Request) (string, error) {
	r.attempts.Add(1)

	response, err := r.service.Complete(ctx, buildRevisionPrompt(req))
	if err != nil {
		return "", askerrors.Wrap(err, askerrors.ErrTypeValidation, "revision call failed")
	}

	revised := extractSQL(response)
	if revised == "" {
		return "", askerrors.New(askerrors.ErrTypeValidation, "revision returned no SQL")
	}

	return revised, nil
}

// ValidateAndRevise runs the validate-revise loop for one statement until
// it passes or the attempt budget is spent. It returns the final SQL and
// the last validation result; the error is non-nil only when the budget is
// exhausted with the statement still invalid.
func (r *Reviser) ValidateAndRevise(
	ctx context.Context,
	v *Validator,
	req Request,
	allowedTables []string,
) (string, *Result, error) {
	sql := req.SQL

	result := v.Validate(sql, allowedTables)
	if result.Valid {
		return sql, result, nil
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		logging.WithFields(map[string]any{
			"attempt": attempt,
			"errors":  result.ErrorText(),
		}).Debug("revising invalid statement")

		revised, err := r.Revise(ctx, Request{
			Query:      req.Query,
			SQL:        sql,
			Errors:     result.ErrorText(),
			SchemaDesc: req.SchemaDesc,
		})
		if err != nil {
			return sql, result, err
		}

		sql = revised

		result = v.Validate(sql, allowedTables)
		if result.Valid {
			return sql, result, nil
		}
	}

	return sql, result, askerrors.Newf(askerrors.ErrTypeValidation,
		"statement still invalid after %d revision attempts: %s", r.maxAttempts, result.ErrorText())
}

func buildRevisionPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString("The SQL statement below failed. Produce a corrected statement.\n\n")
	fmt.Fprintf(&sb, "Original question: %s\n\n", req.Query)
	fmt.Fprintf(&sb, "Failed SQL:\n%s\n\n", req.SQL)
	fmt.Fprintf(&sb, "Errors:\n%s\n\n", req.Errors)

	if req.SchemaDesc != "" {
		fmt.Fprintf(&sb, "Relevant schema:\n%s\n", req.SchemaDesc)
	}

	sb.WriteString("Respond with exactly one corrected SQL statement in a ```sql fenced code block.\n")

	return sb.String()
}

// extractSQL pulls the statement out of a revision response, tolerating
// bare responses without fences.
func extractSQL(response string) string {
	if blocks := generator.ParseBlocks(response, nil); len(blocks) > 0 {
		return blocks[0].SQL
	}

	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```sql")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}
