package database

import (
	"fmt"

	askerrors "github.com/Malumbo21/askdb/internal/errors"
)

// Dialect abstracts the database-specific pieces of introspection and
// sampling. All introspection queries are parameterless: each dialect
// embeds its own current-schema expression.
type Dialect interface {
	Name() string
	// TablesQuery returns rows of (table_name, table_comment) for the
	// current schema, in name order.
	TablesQuery() string
	// ColumnsQuery returns rows of (table_name, column_name, data_type,
	// is_nullable YES/NO, column_key PRI or empty, column_comment) in
	// ordinal order.
	ColumnsQuery() string
	// ForeignKeysQuery returns rows of (table_name, column_name) for
	// foreign-key columns.
	ForeignKeysQuery() string
	// SampleQuery selects up to limit rows from a table.
	SampleQuery(table string, limit int) string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
}

// ForDriver returns the dialect for a driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return mysqlDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	case "sqlserver":
		return sqlserverDialect{}, nil
	default:
		return nil, askerrors.Newf(askerrors.ErrTypeConfig, "unsupported driver: %s", driver)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME, COALESCE(TABLE_COMMENT, '')
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`
}

func (mysqlDialect) ColumnsQuery() string {
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_KEY, COALESCE(COLUMN_COMMENT, '')
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE()
ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (mysqlDialect) ForeignKeysQuery() string {
	return `SELECT TABLE_NAME, COLUMN_NAME
FROM information_schema.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME IS NOT NULL`
}

func (d mysqlDialect) SampleQuery(table string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", d.QuoteIdentifier(table), limit)
}

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + name + "`"
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) TablesQuery() string {
	return `SELECT t.table_name,
  COALESCE(obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass::oid), '')
FROM information_schema.tables t
WHERE t.table_schema = current_schema() AND t.table_type = 'BASE TABLE'
ORDER BY t.table_name`
}

func (postgresDialect) ColumnsQuery() string {
	return `SELECT c.table_name, c.column_name, c.data_type, c.is_nullable,
  COALESCE((SELECT 'PRI'
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = c.table_schema
      AND tc.table_name = c.table_name
      AND kcu.column_name = c.column_name), ''),
  COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass::oid, c.ordinal_position), '')
FROM information_schema.columns c
WHERE c.table_schema = current_schema()
ORDER BY c.table_name, c.ordinal_position`
}

func (postgresDialect) ForeignKeysQuery() string {
	return `SELECT kcu.table_name, kcu.column_name
FROM information_schema.key_column_usage kcu
JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name
WHERE kcu.table_schema = current_schema() AND tc.constraint_type = 'FOREIGN KEY'`
}

func (d postgresDialect) SampleQuery(table string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", d.QuoteIdentifier(table), limit)
}

func (postgresDialect) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return "sqlserver" }

func (sqlserverDialect) TablesQuery() string {
	return `SELECT TABLE_NAME, ''
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`
}

func (sqlserverDialect) ColumnsQuery() string {
	return `SELECT c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE,
  COALESCE((SELECT 'PRI'
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
      AND tc.TABLE_NAME = c.TABLE_NAME
      AND kcu.COLUMN_NAME = c.COLUMN_NAME), ''),
  ''
FROM INFORMATION_SCHEMA.COLUMNS c
WHERE c.TABLE_SCHEMA = SCHEMA_NAME()
ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`
}

func (sqlserverDialect) ForeignKeysQuery() string {
	return `SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
WHERE tc.CONSTRAINT_TYPE = 'FOREIGN KEY'`
}

func (d sqlserverDialect) SampleQuery(table string, limit int) string {
	return fmt.Sprintf("SELECT TOP %d * FROM %s", limit, d.QuoteIdentifier(table))
}

func (sqlserverDialect) QuoteIdentifier(name string) string {
	return "[" + name + "]"
}
