package database

import (
	"context"
	"database/sql"
	"strings"

	// Drivers register themselves with database/sql.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"

	askerrors "github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/logging"
	"github.com/Malumbo21/askdb/internal/schema"
)

// Connection is one live database the orchestrator can run statements
// against.
type Connection interface {
	ID() string
	GetSchema(ctx context.Context) (schema.Schema, error)
	ExecuteQuery(ctx context.Context, query string) (*QueryResult, error)
	ExecuteUpdate(ctx context.Context, statement string) (*UpdateResult, error)
	DryRun(ctx context.Context, statement string) (*DryRunResult, error)
	GetSampleRows(ctx context.Context, table string, limit int) (*QueryResult, error)
	Close() error
}

// sqlConn implements Connection over database/sql.
type sqlConn struct {
	id      string
	db      *sql.DB
	dialect Dialect
}

// Open connects to a database and verifies the connection.
func Open(ctx context.Context, id, driver, dsn string) (Connection, error) {
	dialect, err := ForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeConfig, "failed to open database %s", id)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to reach database %s", id)
	}

	return &sqlConn{id: id, db: db, dialect: dialect}, nil
}

func (c *sqlConn) ID() string { return c.id }

// GetSchema introspects tables, columns and foreign keys into a snapshot.
func (c *sqlConn) GetSchema(ctx context.Context) (schema.Schema, error) {
	var result schema.Schema

	tableIndex := make(map[string]int)

	rows, err := c.db.QueryContext(ctx, c.dialect.TablesQuery())
	if err != nil {
		return result, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to list tables on %s", c.id)
	}
	defer rows.Close()

	for rows.Next() {
		var name, comment string
		if err := rows.Scan(&name, &comment); err != nil {
			return result, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to scan table row on %s", c.id)
		}

		tableIndex[strings.ToLower(name)] = len(result.Tables)
		result.Tables = append(result.Tables, schema.Table{Name: name, Comment: comment})
	}

	if err := rows.Err(); err != nil {
		return result, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed reading tables on %s", c.id)
	}

	if err := c.fillColumns(ctx, &result, tableIndex); err != nil {
		return result, err
	}

	if err := c.markForeignKeys(ctx, &result, tableIndex); err != nil {
		return result, err
	}

	return result, nil
}

func (c *sqlConn) fillColumns(ctx context.Context, s *schema.Schema, tableIndex map[string]int) error {
	rows, err := c.db.QueryContext(ctx, c.dialect.ColumnsQuery())
	if err != nil {
		return askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to list columns on %s", c.id)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column, dataType, nullable, key, comment string
		if err := rows.Scan(&table, &column, &dataType, &nullable, &key, &comment); err != nil {
			return askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to scan column row on %s", c.id)
		}

		idx, ok := tableIndex[strings.ToLower(table)]
		if !ok {
			continue
		}

		s.Tables[idx].Columns = append(s.Tables[idx].Columns, schema.Column{
			Name:         column,
			Type:         dataType,
			Nullable:     strings.EqualFold(nullable, "YES"),
			IsPrimaryKey: key == "PRI",
			Comment:      comment,
		})
	}

	return rows.Err()
}

func (c *sqlConn) markForeignKeys(ctx context.Context, s *schema.Schema, tableIndex map[string]int) error {
	rows, err := c.db.QueryContext(ctx, c.dialect.ForeignKeysQuery())
	if err != nil {
		return askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to list foreign keys on %s", c.id)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to scan foreign key row on %s", c.id)
		}

		idx, ok := tableIndex[strings.ToLower(table)]
		if !ok {
			continue
		}

		for i := range s.Tables[idx].Columns {
			if strings.EqualFold(s.Tables[idx].Columns[i].Name, column) {
				s.Tables[idx].Columns[i].IsForeignKey = true
			}
		}
	}

	return rows.Err()
}

// ExecuteQuery runs a read statement and renders all cells as strings.
func (c *sqlConn) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "query failed on %s", c.id)
	}
	defer rows.Close()

	return scanRows(rows, c.id)
}

// ExecuteUpdate commits a write statement.
func (c *sqlConn) ExecuteUpdate(ctx context.Context, statement string) (*UpdateResult, error) {
	res, err := c.db.ExecContext(ctx, statement)
	if err != nil {
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "update failed on %s", c.id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows for DDL.
		affected = -1
	}

	return &UpdateResult{Success: true, AffectedRows: affected, Message: "ok"}, nil
}

// DryRun executes the statement inside a transaction and rolls back,
// reporting the rows that would have been affected.
func (c *sqlConn) DryRun(ctx context.Context, statement string) (*DryRunResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeDryRun, "failed to begin dry-run transaction on %s", c.id)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logging.WithField("database", c.id).WithError(err).Warn("dry-run rollback failed")
		}
	}()

	res, err := tx.ExecContext(ctx, statement)
	if err != nil {
		return &DryRunResult{Valid: false, Message: err.Error()}, nil
	}

	result := &DryRunResult{Valid: true, Message: "rolled back"}

	if affected, err := res.RowsAffected(); err == nil {
		result.EstimatedRows = affected
	} else {
		result.Warnings = append(result.Warnings, "affected row count unavailable")
	}

	return result, nil
}

// GetSampleRows fetches up to limit rows from a table.
func (c *sqlConn) GetSampleRows(ctx context.Context, table string, limit int) (*QueryResult, error) {
	return c.ExecuteQuery(ctx, c.dialect.SampleQuery(table, limit))
}

func (c *sqlConn) Close() error {
	return c.db.Close()
}

// scanRows renders a row set with every cell as a string.
func scanRows(rows *sql.Rows, id string) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to read columns on %s", id)
	}

	result := &QueryResult{Columns: columns}

	values := make([]sql.NullString, len(columns))
	scanArgs := make([]any, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed to scan row on %s", id)
		}

		row := make([]string, len(columns))

		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, askerrors.Wrapf(err, askerrors.ErrTypeExecution, "failed reading rows on %s", id)
	}

	result.RowCount = len(result.Rows)

	return result, nil
}
