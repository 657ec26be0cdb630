package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malumbo21/askdb/internal/database"
	"github.com/Malumbo21/askdb/internal/linker"
	"github.com/Malumbo21/askdb/internal/llm"
	"github.com/Malumbo21/askdb/internal/schema"
	"github.com/Malumbo21/askdb/internal/token"
)

// scriptedService returns queued completions in call order, repeating the
// last one once the queue runs dry.
type scriptedService struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (s *scriptedService) Complete(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}

	return s.responses[idx], nil
}

func (s *scriptedService) Configure(_ llm.Config) error { return nil }

// fakeConn is a scriptable in-memory connection.
type fakeConn struct {
	mu          sync.Mutex
	id          string
	schema      schema.Schema
	queryResult *database.QueryResult
	queryFails  int
	queries     []string
	dry         *database.DryRunResult
	dryFails    int
	drySQLs     []string
	update      *database.UpdateResult
	updateCalls int
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) GetSchema(_ context.Context) (schema.Schema, error) {
	return f.schema, nil
}

func (f *fakeConn) ExecuteQuery(_ context.Context, query string) (*database.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)

	if f.queryFails > 0 {
		f.queryFails--
		return nil, errors.New("relation does not exist")
	}

	return f.queryResult, nil
}

func (f *fakeConn) ExecuteUpdate(_ context.Context, _ string) (*database.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++

	if f.update == nil {
		return &database.UpdateResult{Success: true, AffectedRows: 1}, nil
	}

	return f.update, nil
}

func (f *fakeConn) DryRun(_ context.Context, statement string) (*database.DryRunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.drySQLs = append(f.drySQLs, statement)

	if f.dryFails > 0 {
		f.dryFails--
		return &database.DryRunResult{Valid: false, Message: "unknown column in statement"}, nil
	}

	if f.dry == nil {
		return &database.DryRunResult{Valid: true}, nil
	}

	return f.dry, nil
}

func (f *fakeConn) GetSampleRows(_ context.Context, _ string, _ int) (*database.QueryResult, error) {
	return &database.QueryResult{}, nil
}

func (f *fakeConn) Close() error { return nil }

func salesSchema() schema.Schema {
	return schema.Schema{Tables: []schema.Table{
		{Name: "customers", Columns: []schema.Column{
			{Name: "id", Type: "INT", IsPrimaryKey: true},
			{Name: "name", Type: "VARCHAR(255)"},
		}},
		{Name: "orders", Columns: []schema.Column{
			{Name: "id", Type: "INT", IsPrimaryKey: true},
			{Name: "customer_id", Type: "INT", IsForeignKey: true},
			{Name: "total", Type: "DECIMAL(10,2)"},
		}},
	}}
}

func newOrchestrator(svc llm.Service, approval ApprovalFunc, conns ...*fakeConn) (*Orchestrator, *database.Registry) {
	registry := database.NewRegistry()
	for _, conn := range conns {
		registry.Add(conn)
	}

	strategy := linker.NewKeywordStrategy(token.NewExtractor(), linker.DefaultKeywordConfig())

	return New(registry, svc, strategy, approval, DefaultConfig()), registry
}

func TestExecute_ReadHappyPath(t *testing.T) {
	conn := &fakeConn{
		id:     "main",
		schema: salesSchema(),
		queryResult: &database.QueryResult{
			Columns: []string{"name", "total"},
			Rows: [][]string{
				{"Ada", "120"}, {"Grace", "110"}, {"Edsger", "90"}, {"Barbara", "75"}, {"Donald", "60"},
			},
			RowCount: 5,
		},
	}

	svc := &scriptedService{responses: []string{
		"```sql\n-- database: main\nSELECT c.name, SUM(o.total) AS total FROM customers c JOIN orders o ON o.customer_id = c.id GROUP BY c.name ORDER BY total DESC LIMIT 5\n```",
	}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "show top 5 customers by order total"})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, []string{"main"}, outcome.TargetDatabases)
	assert.Zero(t, outcome.RevisionAttempts)
	assert.Empty(t, outcome.Errors)
	require.NotNil(t, outcome.Combined)
	assert.Equal(t, 5, outcome.Combined.RowCount)
}

func TestExecute_WhitelistRevision(t *testing.T) {
	conn := &fakeConn{
		id:     "main",
		schema: salesSchema(),
		queryResult: &database.QueryResult{
			Columns: []string{"name"}, Rows: [][]string{{"Ada"}}, RowCount: 1,
		},
	}

	svc := &scriptedService{responses: []string{
		// Generation misspells the table; revision corrects it.
		"```sql\nSELECT name FROM custmers\n```",
		"```sql\nSELECT name FROM customers\n```",
	}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "show customer names"})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.RevisionAttempts)
	require.Len(t, outcome.Blocks, 1)
	assert.Equal(t, "SELECT name FROM customers", outcome.Blocks[0].SQL)
	require.Len(t, conn.queries, 1)
	assert.Equal(t, "SELECT name FROM customers", conn.queries[0])
}

func TestExecute_HighRiskWriteRejected(t *testing.T) {
	conn := &fakeConn{id: "main", schema: salesSchema()}

	svc := &scriptedService{responses: []string{"```sql\nDROP TABLE orders\n```"}}

	var captured ApprovalRequest

	approval := func(_ context.Context, req ApprovalRequest) (bool, error) {
		captured = req
		return false, nil
	}

	o, _ := newOrchestrator(svc, approval, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "drop the orders table"})
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	require.NotEmpty(t, outcome.Errors)
	assert.Contains(t, outcome.Errors[0], "rejected by user")
	assert.Contains(t, outcome.Errors[0], "approval_rejected")

	// The statement never reached the database.
	assert.Zero(t, conn.updateCalls)

	assert.True(t, captured.HighRisk)
	assert.Equal(t, "DROP", captured.Operation)
	assert.Contains(t, captured.Tables, "orders")
}

func TestExecute_ApprovedWriteSyntheticResult(t *testing.T) {
	conn := &fakeConn{
		id:     "main",
		schema: salesSchema(),
		dry:    &database.DryRunResult{Valid: true, EstimatedRows: 3},
		update: &database.UpdateResult{Success: true, AffectedRows: 3},
	}

	svc := &scriptedService{responses: []string{
		"```sql\nUPDATE orders SET total = 0 WHERE customer_id = 7\n```",
	}}

	approval := func(_ context.Context, req ApprovalRequest) (bool, error) {
		assert.False(t, req.HighRisk)
		assert.Equal(t, int64(3), req.DryRun.EstimatedRows)
		return true, nil
	}

	o, _ := newOrchestrator(svc, approval, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "reset totals for customer 7"})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, conn.updateCalls)

	result := outcome.Results["main"]
	require.NotNil(t, result)
	assert.Equal(t, []string{"Operation", "Affected Rows", "Status"}, result.Columns)
	assert.Equal(t, []string{"UPDATE", "3", "success"}, result.Rows[0])
}

func TestExecute_WriteDryRunFailureRevised(t *testing.T) {
	conn := &fakeConn{
		id:       "main",
		schema:   salesSchema(),
		dryFails: 1,
		update:   &database.UpdateResult{Success: true, AffectedRows: 2},
	}

	svc := &scriptedService{responses: []string{
		// Generation misspells a column; the whitelist cannot catch it, so
		// the dry run does, and one revision cycle recovers.
		"```sql\nUPDATE orders SET totaal = 0 WHERE customer_id = 7\n```",
		"```sql\nUPDATE orders SET total = 0 WHERE customer_id = 7\n```",
	}}

	approval := func(_ context.Context, _ ApprovalRequest) (bool, error) {
		return true, nil
	}

	o, _ := newOrchestrator(svc, approval, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "reset totals for customer 7"})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.RevisionAttempts)

	// First dry run sees the broken statement, the second the corrected one.
	require.Len(t, conn.drySQLs, 2)
	assert.Contains(t, conn.drySQLs[0], "totaal")
	assert.Contains(t, conn.drySQLs[1], "SET total")

	assert.Equal(t, 1, conn.updateCalls)
	require.Len(t, outcome.Blocks, 1)
	assert.Equal(t, "UPDATE orders SET total = 0 WHERE customer_id = 7", outcome.Blocks[0].SQL)

	result := outcome.Results["main"]
	require.NotNil(t, result)
	assert.Equal(t, []string{"UPDATE", "2", "success"}, result.Rows[0])
}

func TestNew_LinkerConfigDefaultsPerField(t *testing.T) {
	svc := &scriptedService{responses: []string{""}}

	o, _ := newOrchestrator(svc, nil)
	o = New(o.registry, svc, o.strategy, nil, Config{
		Linker: linker.ChainConfig{MinRelevantTables: 5},
	})

	// Explicit values survive; only unset fields take defaults.
	assert.Equal(t, 5, o.config.Linker.MinRelevantTables)
	assert.Equal(t, DefaultConfig().Linker.SmallSchemaTables, o.config.Linker.SmallSchemaTables)
	assert.Zero(t, o.config.Linker.SampleRows)
}

func TestExecute_NilApprovalRejectsWrites(t *testing.T) {
	conn := &fakeConn{id: "main", schema: salesSchema()}

	svc := &scriptedService{responses: []string{"```sql\nDELETE FROM orders WHERE id = 1\n```"}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "delete order 1"})
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Zero(t, conn.updateCalls)
}

func TestExecute_ParallelReadsCombined(t *testing.T) {
	sales := &fakeConn{
		id:     "sales",
		schema: salesSchema(),
		queryResult: &database.QueryResult{
			Columns: []string{"name", "total"}, Rows: [][]string{{"Ada", "120"}}, RowCount: 1,
		},
	}
	hr := &fakeConn{
		id: "hr",
		schema: schema.Schema{Tables: []schema.Table{
			{Name: "employees", Columns: []schema.Column{{Name: "name", Type: "VARCHAR(255)"}}},
		}},
		queryResult: &database.QueryResult{
			Columns: []string{"name"}, Rows: [][]string{{"Linus"}, {"Ken"}}, RowCount: 2,
		},
	}

	svc := &scriptedService{responses: []string{
		"```sql\n-- database: sales\nSELECT name, total FROM orders\n```\n" +
			"```sql\n-- database: hr\nSELECT name FROM employees\n```",
	}}

	o, _ := newOrchestrator(svc, nil, sales, hr)

	outcome, err := o.Execute(context.Background(), Task{Query: "orders and employees"})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, []string{"sales", "hr"}, outcome.TargetDatabases)

	require.NotNil(t, outcome.Combined)
	assert.Equal(t, database.DatabaseColumn, outcome.Combined.Columns[0])
	assert.Equal(t, 3, outcome.Combined.RowCount)
	assert.Len(t, outcome.Combined.Columns, 3)
}

func TestExecute_ConnectionNotFoundIsPerStatement(t *testing.T) {
	conn := &fakeConn{
		id:     "main",
		schema: salesSchema(),
		queryResult: &database.QueryResult{
			Columns: []string{"name"}, Rows: [][]string{{"Ada"}}, RowCount: 1,
		},
	}

	svc := &scriptedService{responses: []string{
		"```sql\n-- database: analytics\nSELECT 1\n```\n" +
			"```sql\n-- database: main\nSELECT name FROM customers\n```",
	}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "customer names"})
	require.NoError(t, err)

	// The unknown database is an error; the sibling still succeeds.
	assert.True(t, outcome.Success)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0], "analytics")
}

func TestExecute_RetryWithRevision(t *testing.T) {
	conn := &fakeConn{
		id:         "main",
		schema:     salesSchema(),
		queryFails: 1,
		queryResult: &database.QueryResult{
			Columns: []string{"name"}, Rows: [][]string{{"Ada"}}, RowCount: 1,
		},
	}

	svc := &scriptedService{responses: []string{
		"```sql\nSELECT name FROM customers WHERE id = 0\n```",
		// Revision after the runtime failure.
		"```sql\nSELECT name FROM customers\n```",
	}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "customer names"})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.RevisionAttempts)
	require.Len(t, conn.queries, 2)
	assert.Equal(t, "SELECT name FROM customers", conn.queries[1])
	assert.Equal(t, "SELECT name FROM customers", outcome.Blocks[0].SQL)
}

func TestExecute_UnchangedRevisionAbortsRetries(t *testing.T) {
	conn := &fakeConn{
		id:         "main",
		schema:     salesSchema(),
		queryFails: 10,
	}

	same := "```sql\nSELECT name FROM customers\n```"
	svc := &scriptedService{responses: []string{same, same}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "customer names"})
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Errors)

	// One execution, one identical revision, then an early abort.
	assert.Len(t, conn.queries, 1)
}

func TestExecute_GenerateOnly(t *testing.T) {
	conn := &fakeConn{id: "main", schema: salesSchema()}

	svc := &scriptedService{responses: []string{
		"```sql\nSELECT name FROM customers\n```",
	}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "customer names", GenerateOnly: true})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.Len(t, outcome.Blocks, 1)
	assert.Equal(t, "SELECT name FROM customers", outcome.Blocks[0].SQL)

	// Validation ran, execution did not.
	assert.Empty(t, conn.queries)
	assert.Zero(t, conn.updateCalls)
	assert.Empty(t, outcome.Results)
	assert.Nil(t, outcome.Combined)
}

func TestExecute_GenerationFailureIsTerminal(t *testing.T) {
	conn := &fakeConn{id: "main", schema: salesSchema()}

	svc := &scriptedService{responses: []string{"I cannot help with that."}}

	o, _ := newOrchestrator(svc, nil, conn)

	outcome, err := o.Execute(context.Background(), Task{Query: "customer names"})
	require.Error(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, "I cannot help with that.", outcome.RawResponse)
	assert.NotEmpty(t, outcome.Errors)
}
