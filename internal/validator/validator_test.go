package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowed = []string{"customers", "orders"}

func TestValidator_ValidStatements(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		sql  string
	}{
		{"simple select", "SELECT name FROM customers LIMIT 5"},
		{"join with aliases", "SELECT c.name, o.total FROM customers c JOIN orders o ON o.customer_id = c.id"},
		{"subqueries", "SELECT * FROM (SELECT id FROM orders) t WHERE id IN (SELECT id FROM customers)"},
		{"insert", "INSERT INTO customers (name) VALUES ('Ada')"},
		{"update", "UPDATE orders SET total = 0 WHERE id = 1"},
		{"delete", "DELETE FROM orders WHERE id = 1"},
		{"uppercase table", "SELECT * FROM CUSTOMERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.sql, allowed)
			assert.True(t, result.Valid, "errors: %v", result.Errors())
			assert.Empty(t, result.Errors())
		})
	}
}

func TestValidator_WhitelistViolation(t *testing.T) {
	v := New()

	result := v.Validate("SELECT * FROM custmers", allowed)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.WhitelistErrors)
	assert.Empty(t, result.SyntaxErrors)
	assert.Contains(t, result.WhitelistErrors[0], "custmers")
}

func TestValidator_JoinAgainstUnlistedTable(t *testing.T) {
	v := New()

	result := v.Validate(
		"SELECT c.name FROM customers c JOIN payments p ON p.customer_id = c.id", allowed)

	assert.False(t, result.Valid)
	require.Len(t, result.WhitelistErrors, 1)
	assert.Contains(t, result.WhitelistErrors[0], "payments")
}

func TestValidator_SyntaxError(t *testing.T) {
	v := New()

	result := v.Validate("SELEC * FORM customers", allowed)

	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.SyntaxErrors)
	assert.Empty(t, result.WhitelistErrors)
}

func TestValidator_AliasesNotTreatedAsTables(t *testing.T) {
	v := New()

	// The qualifier "c" is an alias, not a table reference.
	result := v.Validate("SELECT c.name FROM customers c", []string{"customers"})

	assert.True(t, result.Valid, "errors: %v", result.Errors())
}

func TestValidator_LexicalFallbackForDialectStatements(t *testing.T) {
	v := New()

	// TRUNCATE may not parse into an AST; the lexical scan still finds
	// the table reference and enforces the whitelist.
	result := v.Validate("TRUNCATE TABLE payments", allowed)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.WhitelistErrors)

	result = v.Validate("TRUNCATE TABLE orders", allowed)
	assert.True(t, result.Valid, "errors: %v", result.Errors())
}

func TestLexicallyPlausible(t *testing.T) {
	assert.True(t, lexicallyPlausible("TRUNCATE TABLE orders"))
	assert.True(t, lexicallyPlausible("  select 1"))
	assert.False(t, lexicallyPlausible("hello world"))
	assert.False(t, lexicallyPlausible("SELECT 'unterminated"))
	assert.False(t, lexicallyPlausible("SELECT (1"))
}

func TestExtractTablesLexical(t *testing.T) {
	tables := extractTablesLexical(
		"SELECT a.x FROM alpha a JOIN beta b ON a.id = b.id WHERE b.id IN (SELECT id FROM alpha)")

	assert.Equal(t, []string{"alpha", "beta"}, tables)
}
