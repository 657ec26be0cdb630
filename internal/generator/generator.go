// Package generator turns a natural-language query plus linked schema
// context into executable SQL statements, one per target database.
package generator

import (
	"context"
	"fmt"
	"strings"

	askerrors "github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/linker"
	"github.com/Malumbo21/askdb/internal/llm"
	"github.com/Malumbo21/askdb/internal/logging"
	"github.com/Malumbo21/askdb/internal/schema"
)

// Block pairs one SQL statement with its target database identifier.
type Block struct {
	Database string
	SQL      string
}

// Request carries everything one generation pass needs.
type Request struct {
	// Query is the user's natural-language question.
	Query string
	// Context is optional free text appended to the prompt.
	Context string
	// Linked holds per-database linking results keyed by identifier.
	Linked map[string]*linker.Result
	// Schemas are the full per-database schemas the linking results
	// subset.
	Schemas *schema.Merged
	// RowLimit caps result sizes via a LIMIT directive in the prompt.
	RowLimit int
}

// Result carries parsed blocks plus the raw model response for diagnostics.
type Result struct {
	Blocks []Block
	Raw    string
}

// Generator builds prompts and parses completions into SQL blocks.
type Generator struct {
	service llm.Service
}

// New creates a generator using the given completion service.
func New(service llm.Service) *Generator {
	return &Generator{service: service}
}

// Generate produces SQL for the request. Zero parsable blocks is a terminal
// generation failure; the raw response is preserved in the result either
// way.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := g.buildPrompt(req)

	response, err := g.service.Complete(ctx, prompt)
	if err != nil {
		return nil, askerrors.Wrap(err, askerrors.ErrTypeGeneration, "completion call failed")
	}

	blocks := ParseBlocks(response, req.Schemas.Order)
	result := &Result{Blocks: blocks, Raw: response}

	if len(blocks) == 0 {
		return result, askerrors.Newf(askerrors.ErrTypeGeneration,
			"no SQL blocks in response: %s", truncate(response, 500))
	}

	logging.WithField("blocks", len(blocks)).Debug("parsed generated SQL")

	return result, nil
}

// buildPrompt embeds the linked schema subsets, allowed-table whitelists
// and formatting rules.
func (g *Generator) buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString("You are an expert SQL engineer. Convert the question below into SQL.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Put each SQL statement in its own ```sql fenced code block, exactly one statement per block.\n")

	if req.Schemas.Len() > 1 {
		sb.WriteString("2. Start every block with a comment naming the target database: -- database: <id>\n")
	} else if len(req.Schemas.Order) == 1 {
		fmt.Fprintf(&sb, "2. All statements run against the %q database.\n", req.Schemas.Order[0])
	}

	sb.WriteString("3. Use only the tables listed under ALLOWED TABLES.\n")

	if req.RowLimit > 0 {
		fmt.Fprintf(&sb, "4. Limit SELECT results to at most %d rows.\n", req.RowLimit)
	}

	sb.WriteString("\n")

	for _, db := range req.Schemas.Order {
		linked := req.Linked[db]
		if linked == nil {
			continue
		}

		sub := linked.Subset(req.Schemas.Schemas[db])

		fmt.Fprintf(&sb, "=== Database: %s ===\n", db)
		fmt.Fprintf(&sb, "ALLOWED TABLES: %s\n\n", strings.Join(linked.Tables, ", "))
		sb.WriteString(sub.Describe())

		for _, table := range linked.Tables {
			if sample, ok := linked.Samples[table]; ok {
				fmt.Fprintf(&sb, "Sample rows from %s:\n%s\n", table, sample)
			}
		}
	}

	if req.Context != "" {
		fmt.Fprintf(&sb, "Additional context:\n%s\n\n", req.Context)
	}

	fmt.Fprintf(&sb, "Question: %s\n", req.Query)

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
