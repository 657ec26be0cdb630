package linker

import (
	"context"
	"fmt"
	"strings"

	"github.com/Malumbo21/askdb/internal/logging"
	"github.com/Malumbo21/askdb/internal/schema"
)

// Sampler fetches a few live rows from a table so prompts can show real
// value shapes alongside column types.
type Sampler interface {
	GetSampleRows(ctx context.Context, table string, limit int) (columns []string, rows [][]string, err error)
}

// ChainConfig tunes the top-level linking chain.
type ChainConfig struct {
	// MinRelevantTables and SmallSchemaTables drive the small-schema
	// widening: when a pass finds fewer than MinRelevantTables tables and
	// the schema has at most SmallSchemaTables tables, all tables are
	// kept instead. Small schemas are cheap to include wholesale.
	MinRelevantTables int
	SmallSchemaTables int
	// SampleRows is the number of rows fetched per linked table; 0
	// disables sampling.
	SampleRows int
}

// DefaultChainConfig returns the default tuning.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		MinRelevantTables: 2,
		SmallSchemaTables: 10,
		SampleRows:        3,
	}
}

// Chain is the top of the strategy stack: it runs the inner strategy,
// applies the small-schema widening policy, and optionally decorates the
// result with sample rows.
type Chain struct {
	inner   Strategy
	sampler Sampler
	config  ChainConfig
}

// NewChain wraps a strategy. A nil sampler disables sampling.
func NewChain(inner Strategy, sampler Sampler, cfg ChainConfig) *Chain {
	return &Chain{inner: inner, sampler: sampler, config: cfg}
}

// Name identifies the chain in logs.
func (c *Chain) Name() string { return c.inner.Name() + "+chain" }

// Keywords delegates to the inner strategy.
func (c *Chain) Keywords(query string) []string {
	return c.inner.Keywords(query)
}

// Link runs the inner strategy and post-processes its result.
func (c *Chain) Link(ctx context.Context, query string, sch schema.Schema) (*Result, error) {
	result, err := c.inner.Link(ctx, query, sch)
	if err != nil {
		return nil, err
	}

	if len(result.Tables) < c.config.MinRelevantTables && len(sch.Tables) <= c.config.SmallSchemaTables {
		logging.WithFields(map[string]any{
			"linked": len(result.Tables),
			"total":  len(sch.Tables),
		}).Debug("widening to full schema")

		result.Tables = sch.TableNames()
	}

	if c.sampler != nil && c.config.SampleRows > 0 {
		result.Samples = c.sampleTables(ctx, result.Tables)
	}

	return result, nil
}

// sampleTables fetches sample rows per table, skipping tables that fail.
// Sampling is best-effort enrichment, never a reason to fail linking.
func (c *Chain) sampleTables(ctx context.Context, tables []string) map[string]string {
	samples := make(map[string]string, len(tables))

	for _, table := range tables {
		columns, rows, err := c.sampler.GetSampleRows(ctx, table, c.config.SampleRows)
		if err != nil {
			logging.WithField("table", table).WithError(err).Debug("sample fetch failed")
			continue
		}

		if len(rows) == 0 {
			continue
		}

		samples[table] = renderSample(columns, rows)
	}

	return samples
}

// renderSample formats sample rows as pipe-separated lines.
func renderSample(columns []string, rows [][]string) string {
	var sb strings.Builder

	sb.WriteString(strings.Join(columns, " | "))
	sb.WriteString("\n")

	for _, row := range rows {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// LinkMerged links the query against every database in the merged schema
// and returns per-database results keyed by identifier.
func LinkMerged(ctx context.Context, s Strategy, query string, merged *schema.Merged) (map[string]*Result, error) {
	results := make(map[string]*Result, merged.Len())

	for _, db := range merged.Order {
		result, err := s.Link(ctx, query, merged.Schemas[db])
		if err != nil {
			return nil, fmt.Errorf("linking against database %s: %w", db, err)
		}

		results[db] = result
	}

	return results, nil
}

var _ Strategy = (*Chain)(nil)
