package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Malumbo21/askdb/internal/database"
)

func TestRenderTable(t *testing.T) {
	result := &database.QueryResult{
		Columns: []string{"name", "total"},
		Rows: [][]string{
			{"Ada Lovelace", "120.50"},
			{"Bob", "7"},
		},
		RowCount: 2,
	}

	out := renderTable(result)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 4)
	assert.Equal(t, "name          total", strings.TrimRight(lines[0], " "))
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "Ada Lovelace")
	assert.Contains(t, lines[3], "Bob")

	// Every data line is padded to the same width as the header.
	assert.Equal(t, len(lines[0]), len(lines[2]))
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "(no results)\n", renderTable(nil))
	assert.Equal(t, "(no results)\n", renderTable(&database.QueryResult{}))
}

func TestRenderTable_ShortRowPadded(t *testing.T) {
	result := &database.QueryResult{
		Columns:  []string{"_database", "a", "b"},
		Rows:     [][]string{{"main", "1"}},
		RowCount: 1,
	}

	out := renderTable(result)

	assert.NotPanics(t, func() { renderTable(result) })
	assert.Contains(t, out, "main")
}
