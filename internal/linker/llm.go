package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Malumbo21/askdb/internal/llm"
	"github.com/Malumbo21/askdb/internal/logging"
	"github.com/Malumbo21/askdb/internal/schema"
)

// LLMStrategy asks the completion service which tables and columns matter
// for a query. Model output is never trusted directly: every returned name
// is revalidated against the actual schema and hallucinated entries are
// dropped. Any failure, or an empty validated result, delegates to the
// fallback strategy.
type LLMStrategy struct {
	service  llm.Service
	fallback Strategy
}

// NewLLMStrategy creates an LLM strategy delegating to fallback on failure.
func NewLLMStrategy(service llm.Service, fallback Strategy) *LLMStrategy {
	return &LLMStrategy{service: service, fallback: fallback}
}

// Name identifies the strategy in logs.
func (s *LLMStrategy) Name() string { return "llm" }

// Keywords delegates to the fallback strategy's extractor.
func (s *LLMStrategy) Keywords(query string) []string {
	return s.fallback.Keywords(query)
}

// linkResponse is the JSON shape requested from the model.
type linkResponse struct {
	Tables     []string `json:"tables"`
	Columns    []string `json:"columns"`
	Confidence float64  `json:"confidence"`
}

// Link asks the model for relevant tables, validates the answer, and falls
// back on any failure.
func (s *LLMStrategy) Link(ctx context.Context, query string, sch schema.Schema) (*Result, error) {
	response, err := s.service.Complete(ctx, s.buildPrompt(query, sch))
	if err != nil {
		logging.WithField("strategy", s.Name()).WithError(err).Warn("linking call failed, falling back")
		return s.fallback.Link(ctx, query, sch)
	}

	parsed, err := parseLinkResponse(response)
	if err != nil {
		logging.WithField("strategy", s.Name()).WithError(err).Warn("unparsable linking response, falling back")
		return s.fallback.Link(ctx, query, sch)
	}

	var tables []string

	for _, name := range parsed.Tables {
		if t, ok := sch.FindTable(name); ok {
			tables = append(tables, t.Name)
		} else {
			logging.WithFields(map[string]any{"strategy": s.Name(), "table": name}).
				Debug("dropping hallucinated table")
		}
	}

	if len(tables) == 0 {
		return s.fallback.Link(ctx, query, sch)
	}

	var columns []string

	for _, pair := range parsed.Columns {
		table, column, ok := strings.Cut(pair, ".")
		if ok && sch.HasColumn(table, column) {
			columns = append(columns, pair)
		}
	}

	return &Result{
		Tables:     tables,
		Columns:    columns,
		Keywords:   s.Keywords(query),
		Confidence: clamp(parsed.Confidence),
	}, nil
}

func (s *LLMStrategy) buildPrompt(query string, sch schema.Schema) string {
	return fmt.Sprintf(`You are selecting the database tables needed to answer a question.

Respond with a JSON object only, no prose:
{"tables": ["..."], "columns": ["table.column"], "confidence": 0.0}

Rules:
1. Include only tables and columns that exist in the schema below.
2. Columns use the form "table.column".
3. confidence is a float between 0.0 and 1.0.

Schema:
%s
Question: %s`, sch.Describe(), query)
}

// parseLinkResponse tolerates fenced or prose-wrapped JSON by extracting the
// outermost object.
func parseLinkResponse(response string) (*linkResponse, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed linkResponse
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse linking response: %w", err)
	}

	return &parsed, nil
}

var _ Strategy = (*LLMStrategy)(nil)
