package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Malumbo21/askdb/internal/database"
	askerrors "github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/generator"
	"github.com/Malumbo21/askdb/internal/linker"
	"github.com/Malumbo21/askdb/internal/llm"
	"github.com/Malumbo21/askdb/internal/logging"
	"github.com/Malumbo21/askdb/internal/schema"
	"github.com/Malumbo21/askdb/internal/validator"
)

// Task is one query turn's input.
type Task struct {
	// Query is the natural-language question.
	Query string
	// Context is optional free text forwarded to generation.
	Context string
	// Schemas optionally carries pre-fetched schemas; nil fetches fresh
	// snapshots from every connection.
	Schemas *schema.Merged
	// RowLimit overrides the configured limit when positive.
	RowLimit int
	// GenerateOnly stops the turn after validation; no statement reaches a
	// database.
	GenerateOnly bool
	// Visualize is forwarded to downstream consumers untouched.
	Visualize bool
}

// Outcome is the result of one turn. It always carries both the
// best-effort results and the complete error list; the caller decides
// whether partial success is acceptable.
type Outcome struct {
	Success          bool
	TurnID           string
	Blocks           []generator.Block
	Results          map[string]*database.QueryResult
	Combined         *database.QueryResult
	TargetDatabases  []string
	RevisionAttempts int
	Errors           []string
	RawResponse      string
	Visualize        bool
}

// ApprovalRequest is shown to the user before a write executes.
type ApprovalRequest struct {
	Database  string
	SQL       string
	Operation string
	Tables    []string
	HighRisk  bool
	DryRun    *database.DryRunResult
}

// ApprovalFunc decides whether a write may run. It may block on user input;
// the turn context cancels a pending request.
type ApprovalFunc func(ctx context.Context, req ApprovalRequest) (bool, error)

// Config tunes the orchestrator.
type Config struct {
	MaxRevisionAttempts int
	MaxExecutionRetries int
	RowLimit            int
	TurnTimeout         time.Duration
	Linker              linker.ChainConfig
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		MaxRevisionAttempts: 3,
		MaxExecutionRetries: 3,
		RowLimit:            100,
		TurnTimeout:         5 * time.Minute,
		Linker:              linker.DefaultChainConfig(),
	}
}

// Orchestrator drives the full pipeline for one query turn.
type Orchestrator struct {
	registry *database.Registry
	service  llm.Service
	strategy linker.Strategy
	gen      *generator.Generator
	val      *validator.Validator
	approval ApprovalFunc
	config   Config
}

// New creates an orchestrator. A nil approval function rejects every write.
func New(registry *database.Registry, service llm.Service, strategy linker.Strategy, approval ApprovalFunc, cfg Config) *Orchestrator {
	def := DefaultConfig()

	if cfg.MaxRevisionAttempts < 1 {
		cfg.MaxRevisionAttempts = def.MaxRevisionAttempts
	}

	if cfg.MaxExecutionRetries < 1 {
		cfg.MaxExecutionRetries = def.MaxExecutionRetries
	}

	if cfg.RowLimit < 1 {
		cfg.RowLimit = def.RowLimit
	}

	// Linker fields default individually so a partial config keeps its
	// explicit values. A zero SampleRows is kept; it disables sampling.
	if cfg.Linker.MinRelevantTables < 1 {
		cfg.Linker.MinRelevantTables = def.Linker.MinRelevantTables
	}

	if cfg.Linker.SmallSchemaTables < 1 {
		cfg.Linker.SmallSchemaTables = def.Linker.SmallSchemaTables
	}

	if cfg.Linker.SampleRows < 0 {
		cfg.Linker.SampleRows = def.Linker.SampleRows
	}

	return &Orchestrator{
		registry: registry,
		service:  service,
		strategy: strategy,
		gen:      generator.New(service),
		val:      validator.New(),
		approval: approval,
		config:   cfg,
	}
}

// statement is one validated SQL block ready for execution.
type statement struct {
	index      int
	database   string
	sql        string
	conn       database.Connection
	class      Classification
	allowed    []string
	schemaDesc string
}

// collector guards the outcome against concurrent read-path writers.
type collector struct {
	mu      sync.Mutex
	outcome *Outcome
}

func (c *collector) addResult(db string, qr *database.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.outcome.Results[db]
	if !ok {
		c.outcome.Results[db] = qr
		return
	}

	// Several statements against one database concatenate when their
	// shapes agree; otherwise the first result wins.
	if len(existing.Columns) == len(qr.Columns) {
		existing.Rows = append(existing.Rows, qr.Rows...)
		existing.RowCount = len(existing.Rows)
	} else {
		logging.WithField("database", db).Warn("dropping result with mismatched columns")
	}
}

func (c *collector) addError(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcome.Errors = append(c.outcome.Errors, fmt.Sprintf(format, args...))
}

func (c *collector) setSQL(index int, sql string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcome.Blocks[index].SQL = sql
}

// Execute runs one full turn.
func (o *Orchestrator) Execute(ctx context.Context, task Task) (*Outcome, error) {
	if o.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.TurnTimeout)

		defer cancel()
	}

	outcome := &Outcome{
		TurnID:    uuid.NewString(),
		Results:   make(map[string]*database.QueryResult),
		Visualize: task.Visualize,
	}

	log := logging.WithField("turn", outcome.TurnID)
	log.WithField("query", task.Query).Info("starting query turn")

	merged := task.Schemas
	if merged == nil || merged.Len() == 0 {
		var err error

		merged, err = o.registry.FetchSchemas(ctx)
		if err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			return outcome, err
		}
	}

	rowLimit := task.RowLimit
	if rowLimit <= 0 {
		rowLimit = o.config.RowLimit
	}

	linked, err := o.linkAll(ctx, task.Query, merged)
	if err != nil {
		outcome.Errors = append(outcome.Errors, err.Error())
		return outcome, err
	}

	genResult, err := o.gen.Generate(ctx, generator.Request{
		Query:    task.Query,
		Context:  task.Context,
		Linked:   linked,
		Schemas:  merged,
		RowLimit: rowLimit,
	})

	if genResult != nil {
		outcome.RawResponse = genResult.Raw
	}

	if err != nil {
		// No parsable SQL is terminal for the whole turn.
		outcome.Errors = append(outcome.Errors, err.Error())
		return outcome, err
	}

	counter := &atomic.Int32{}
	reviser := validator.NewReviser(o.service, o.config.MaxRevisionAttempts, counter)
	c := &collector{outcome: outcome}

	reads, writes := o.prepareStatements(ctx, task.Query, genResult.Blocks, linked, merged, reviser, c)

	if task.GenerateOnly {
		outcome.RevisionAttempts = reviser.Attempts()
		outcome.Success = len(outcome.Blocks) > 0

		log.WithField("blocks", len(outcome.Blocks)).Info("generate-only turn finished")

		return outcome, nil
	}

	o.executeReads(ctx, task.Query, reviser, reads, c)

	for _, st := range writes {
		o.executeWrite(ctx, task.Query, reviser, st, c)
	}

	outcome.RevisionAttempts = reviser.Attempts()
	outcome.Success = len(outcome.Results) > 0
	outcome.Combined = database.CombineResults(outcome.TargetDatabases, outcome.Results)

	log.WithFields(map[string]any{
		"success":   outcome.Success,
		"revisions": outcome.RevisionAttempts,
		"errors":    len(outcome.Errors),
	}).Info("query turn finished")

	return outcome, nil
}

// linkAll links the query against each database, with sampling bound to
// that database's connection.
func (o *Orchestrator) linkAll(ctx context.Context, query string, merged *schema.Merged) (map[string]*linker.Result, error) {
	linked := make(map[string]*linker.Result, merged.Len())

	for _, db := range merged.Order {
		var sampler linker.Sampler
		if conn, err := o.registry.Get(db); err == nil {
			sampler = connSampler{conn: conn}
		}

		chain := linker.NewChain(o.strategy, sampler, o.config.Linker)

		result, err := chain.Link(ctx, query, merged.Schemas[db])
		if err != nil {
			return nil, err
		}

		linked[db] = result
	}

	return linked, nil
}

// prepareStatements resolves connections, validates (with revision) and
// classifies each generated block. Per-statement failures are recorded and
// skipped; siblings proceed.
func (o *Orchestrator) prepareStatements(
	ctx context.Context,
	query string,
	blocks []generator.Block,
	linked map[string]*linker.Result,
	merged *schema.Merged,
	reviser *validator.Reviser,
	c *collector,
) (reads, writes []statement) {
	seen := make(map[string]bool)

	for _, block := range blocks {
		conn, err := o.registry.Get(block.Database)
		if err != nil {
			c.addError("%s", err.Error())
			continue
		}

		lk := linked[block.Database]
		if lk == nil {
			c.addError("no linking result for database %q", block.Database)
			continue
		}

		desc := lk.Subset(merged.Schemas[block.Database]).Describe()

		sql, _, err := reviser.ValidateAndRevise(ctx, o.val, validator.Request{
			Query:      query,
			SQL:        block.SQL,
			SchemaDesc: desc,
		}, lk.Tables)
		if err != nil {
			c.addError("%s: %s", block.Database, err.Error())
			continue
		}

		st := statement{
			index:      len(c.outcome.Blocks),
			database:   block.Database,
			sql:        sql,
			conn:       conn,
			class:      Classify(sql),
			allowed:    lk.Tables,
			schemaDesc: desc,
		}

		c.outcome.Blocks = append(c.outcome.Blocks, generator.Block{Database: block.Database, SQL: sql})

		if !seen[block.Database] {
			seen[block.Database] = true
			c.outcome.TargetDatabases = append(c.outcome.TargetDatabases, block.Database)
		}

		if st.class.IsWrite {
			writes = append(writes, st)
		} else {
			reads = append(reads, st)
		}
	}

	return reads, writes
}

// executeReads runs read statements, concurrent across databases and
// sequential within one connection. A slow database never blocks its
// siblings.
func (o *Orchestrator) executeReads(ctx context.Context, query string, reviser *validator.Reviser, stmts []statement, c *collector) {
	groups := make(map[string][]statement)
	for _, st := range stmts {
		groups[st.database] = append(groups[st.database], st)
	}

	var wg sync.WaitGroup

	for _, group := range groups {
		wg.Add(1)

		go func(group []statement) {
			defer wg.Done()

			for _, st := range group {
				o.executeRead(ctx, query, reviser, st, c)
			}
		}(group)
	}

	wg.Wait()
}

// executeRead runs one read statement with bounded retry. Before each retry
// the failing statement is revised with the runtime error; an unchanged
// revision aborts the loop early.
func (o *Orchestrator) executeRead(ctx context.Context, query string, reviser *validator.Reviser, st statement, c *collector) {
	sql := st.sql

	var lastErr error

	for attempt := 1; attempt <= o.config.MaxExecutionRetries; attempt++ {
		result, err := st.conn.ExecuteQuery(ctx, sql)
		if err == nil {
			c.setSQL(st.index, sql)
			c.addResult(st.database, result)

			return
		}

		lastErr = err

		if ctx.Err() != nil || attempt == o.config.MaxExecutionRetries {
			break
		}

		revised, rerr := reviser.Revise(ctx, validator.Request{
			Query:      query,
			SQL:        sql,
			Errors:     err.Error(),
			SchemaDesc: st.schemaDesc,
		})
		if rerr != nil {
			break
		}

		if strings.TrimSpace(revised) == strings.TrimSpace(sql) {
			// Repeating an identical failing statement has no value.
			logging.WithField("database", st.database).Debug("revision unchanged, aborting retries")
			break
		}

		if vres := o.val.Validate(revised, st.allowed); !vres.Valid {
			lastErr = fmt.Errorf("revised statement invalid: %s", vres.ErrorText())
			break
		}

		sql = revised
	}

	c.addError("%s: %v", st.database, lastErr)
}

// executeWrite runs the write path: dry-run, at most one revision cycle on
// dry-run failure, approval, then execution wrapped as a synthetic result.
func (o *Orchestrator) executeWrite(ctx context.Context, query string, reviser *validator.Reviser, st statement, c *collector) {
	sql := st.sql

	dry, err := st.conn.DryRun(ctx, sql)
	if err != nil {
		c.addError("%s: %v", st.database, err)
		return
	}

	if !dry.Valid {
		revised, rerr := reviser.Revise(ctx, validator.Request{
			Query:      query,
			SQL:        sql,
			Errors:     dry.Message,
			SchemaDesc: st.schemaDesc,
		})
		if rerr != nil {
			c.addError("%s: dry run failed: %s", st.database, dry.Message)
			return
		}

		if vres := o.val.Validate(revised, st.allowed); !vres.Valid {
			c.addError("%s: revised statement invalid: %s", st.database, vres.ErrorText())
			return
		}

		sql = revised
		c.setSQL(st.index, sql)

		dry, err = st.conn.DryRun(ctx, sql)
		if err != nil || !dry.Valid {
			c.addError("%s: dry run failed after revision", st.database)
			return
		}
	}

	approved := false

	if o.approval != nil {
		approved, err = o.approval(ctx, ApprovalRequest{
			Database:  st.database,
			SQL:       sql,
			Operation: st.class.Operation,
			Tables:    validator.Tables(sql),
			HighRisk:  st.class.IsHighRisk,
			DryRun:    dry,
		})
		if err != nil {
			c.addError("%s: approval failed: %v", st.database, err)
			return
		}
	}

	if !approved {
		// A veto is a normal terminal state for the statement, not a
		// turn-level failure.
		rejection := askerrors.Newf(askerrors.ErrTypeApprovalRejected, "rejected by user: %s", sql)
		c.addError("%s: %s", st.database, rejection.Error())

		return
	}

	update, err := st.conn.ExecuteUpdate(ctx, sql)
	if err != nil {
		c.addError("%s: %v", st.database, err)
		return
	}

	status := "success"
	if !update.Success {
		status = "failed"
	}

	c.addResult(st.database, &database.QueryResult{
		Columns:  []string{"Operation", "Affected Rows", "Status"},
		Rows:     [][]string{{st.class.Operation, strconv.FormatInt(update.AffectedRows, 10), status}},
		RowCount: 1,
	})
}

// connSampler adapts a Connection to the linker's sampling interface.
type connSampler struct {
	conn database.Connection
}

func (s connSampler) GetSampleRows(ctx context.Context, table string, limit int) ([]string, [][]string, error) {
	result, err := s.conn.GetSampleRows(ctx, table, limit)
	if err != nil {
		return nil, nil, err
	}

	return result.Columns, result.Rows, nil
}
