// Package linker maps natural-language queries to the relevant subset of a
// database schema. Strategies are interchangeable and composed into a
// fallback chain that degrades toward the cheapest implementation.
package linker

import (
	"context"
	"sort"

	"github.com/Malumbo21/askdb/internal/schema"
)

// Result holds the outcome of one linking pass.
type Result struct {
	// Tables lists relevant table names, highest score first. Never empty
	// for a non-empty schema: when nothing matches, all tables are kept.
	Tables []string
	// Columns lists relevant "table.column" pairs.
	Columns []string
	// Keywords are the extracted keywords the pass was based on.
	Keywords []string
	// Confidence is in [0, 1].
	Confidence float64
	// Samples maps table names to rendered sample-row text, populated only
	// when a sampling decorator is in the chain.
	Samples map[string]string
}

// Strategy links a query to a schema subset.
type Strategy interface {
	Link(ctx context.Context, query string, sch schema.Schema) (*Result, error)
	Keywords(query string) []string
	Name() string
}

// Subset materializes the linked tables as a schema restricted to them.
func (r *Result) Subset(sch schema.Schema) schema.Schema {
	return sch.Subset(r.Tables)
}

// clamp bounds a confidence score to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

// sortByScore orders table names by descending score, ties by name for
// stable output.
func sortByScore(names []string, scores map[string]float64) {
	sort.SliceStable(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}

		return names[i] < names[j]
	})
}
