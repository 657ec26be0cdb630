package cmd

import (
	"fmt"
	"strings"

	"github.com/Malumbo21/askdb/internal/database"
)

// renderTable formats a query result as an aligned text table.
func renderTable(result *database.QueryResult) string {
	if result == nil || len(result.Columns) == 0 {
		return "(no results)\n"
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}

	for _, row := range result.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder

	writeRow := func(cells []string) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}

			if i > 0 {
				b.WriteString("  ")
			}

			fmt.Fprintf(&b, "%-*s", w, cell)
		}

		b.WriteString("\n")
	}

	writeRow(result.Columns)

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}

	writeRow(rules)

	for _, row := range result.Rows {
		writeRow(row)
	}

	return b.String()
}
