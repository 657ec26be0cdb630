// Package validator checks generated SQL before execution: syntax first,
// then a table whitelist pass. Failures feed the bounded revision loop.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blastrain/vitess-sqlparser/sqlparser"
)

// Result is the outcome of validating one statement. Syntax and whitelist
// failures are distinguished so the reviser can phrase its correction
// request accordingly.
type Result struct {
	Valid           bool
	SyntaxErrors    []string
	WhitelistErrors []string
}

// Errors returns all error strings, syntax first.
func (r *Result) Errors() []string {
	return append(append([]string{}, r.SyntaxErrors...), r.WhitelistErrors...)
}

// ErrorText joins all errors into one message for revision prompts.
func (r *Result) ErrorText() string {
	return strings.Join(r.Errors(), "; ")
}

// Validator validates SQL statements against a table whitelist.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs the syntax check and, only if it passes, the whitelist
// check. A syntactically broken statement cannot be usefully
// whitelist-checked.
func (v *Validator) Validate(sql string, allowedTables []string) *Result {
	result := &Result{}

	tables, err := extractTables(sql)
	if err != nil {
		result.SyntaxErrors = append(result.SyntaxErrors, err.Error())
		return result
	}

	allowed := make(map[string]bool, len(allowedTables))
	for _, t := range allowedTables {
		allowed[strings.ToLower(t)] = true
	}

	for _, table := range tables {
		if !allowed[strings.ToLower(table)] {
			result.WhitelistErrors = append(result.WhitelistErrors,
				fmt.Sprintf("table %q is not in the allowed table list", table))
		}
	}

	result.Valid = len(result.WhitelistErrors) == 0

	return result
}

// Tables returns the table names a statement references, best effort. Used
// for approval prompts; validation goes through Validate.
func Tables(sql string) []string {
	tables, err := extractTables(sql)
	if err != nil {
		return extractTablesLexical(sql)
	}

	return tables
}

// extractTables parses the statement and collects every referenced table
// name. Statements the parser cannot handle fall back to a lexical scan so
// dialect-specific DDL is not rejected outright.
func extractTables(sql string) ([]string, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		if lexicallyPlausible(sql) {
			return extractTablesLexical(sql), nil
		}

		return nil, fmt.Errorf("syntax error: %v", err)
	}

	seen := make(map[string]bool)

	var tables []string

	add := func(name string) {
		if name == "" || strings.EqualFold(name, "dual") || seen[strings.ToLower(name)] {
			return
		}

		seen[strings.ToLower(name)] = true
		tables = append(tables, name)
	}

	// Only genuine table references count. Walking every TableName node
	// would also pick up column qualifiers, which are usually aliases.
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			if name, ok := n.Expr.(sqlparser.TableName); ok {
				add(name.Name.String())
			}
		case *sqlparser.Insert:
			add(n.Table.Name.String())
		case *sqlparser.DDL:
			add(n.Table.Name.String())
			add(n.NewName.Name.String())
		}

		return true, nil
	}, stmt)

	return tables, nil
}

// statementKeywords are the leading keywords accepted by the lexical
// fallback.
var statementKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE",
	"CREATE", "ALTER", "DROP", "TRUNCATE",
	"WITH", "SHOW", "DESCRIBE", "EXPLAIN",
}

// lexicallyPlausible accepts statements the AST parser rejects but that
// start with a known keyword and have balanced quoting.
func lexicallyPlausible(sql string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))

	known := false

	for _, kw := range statementKeywords {
		if strings.HasPrefix(trimmed, kw+" ") || trimmed == kw {
			known = true
			break
		}
	}

	if !known {
		return false
	}

	return strings.Count(sql, "'")%2 == 0 &&
		strings.Count(sql, "\"")%2 == 0 &&
		strings.Count(sql, "(") == strings.Count(sql, ")")
}

// tableRefPattern catches the identifier after the clauses that introduce
// table references.
var tableRefPattern = regexp.MustCompile(
	`(?i)\b(?:from|join|into|update|table)\s+` + "[`\"]?" + `([A-Za-z_][A-Za-z0-9_$]*)`)

// extractTablesLexical scans for table references without an AST. Used only
// for statements the parser cannot handle.
func extractTablesLexical(sql string) []string {
	seen := make(map[string]bool)

	var tables []string

	for _, m := range tableRefPattern.FindAllStringSubmatch(sql, -1) {
		name := m[1]
		if !seen[strings.ToLower(name)] {
			seen[strings.ToLower(name)] = true
			tables = append(tables, name)
		}
	}

	return tables
}
