// Package schema models read-only snapshots of relational database schemas.
package schema

import (
	"fmt"
	"strings"
)

// Column describes a single table column.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	IsForeignKey bool   `json:"is_foreign_key"`
	Comment      string `json:"comment,omitempty"`
}

// Table describes a table with its columns in declaration order.
type Table struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment,omitempty"`
	Columns []Column `json:"columns"`
}

// Schema is an ordered snapshot of one database's tables. It is fetched per
// query and never mutated afterwards.
type Schema struct {
	Tables []Table `json:"tables"`
}

// TableNames returns the table names in schema order.
func (s Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}

	return names
}

// FindTable returns the table with the given name (case-insensitive).
func (s Schema) FindTable(name string) (Table, bool) {
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}

	return Table{}, false
}

// HasColumn reports whether "table.column" exists (case-insensitive).
func (s Schema) HasColumn(table, column string) bool {
	t, ok := s.FindTable(table)
	if !ok {
		return false
	}

	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, column) {
			return true
		}
	}

	return false
}

// Describe renders the schema as a readable prompt fragment, one table per
// block with columns, key flags, and comments.
func (s Schema) Describe() string {
	var sb strings.Builder

	for _, t := range s.Tables {
		sb.WriteString(fmt.Sprintf("Table: %s", t.Name))

		if t.Comment != "" {
			sb.WriteString(fmt.Sprintf(" -- %s", t.Comment))
		}

		sb.WriteString("\nColumns:\n")

		for _, c := range t.Columns {
			sb.WriteString(fmt.Sprintf("  - %s (%s", c.Name, c.Type))

			if !c.Nullable {
				sb.WriteString(", not null")
			}

			if c.IsPrimaryKey {
				sb.WriteString(", primary key")
			}

			if c.IsForeignKey {
				sb.WriteString(", foreign key")
			}

			sb.WriteString(")")

			if c.Comment != "" {
				sb.WriteString(" - " + c.Comment)
			}

			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// Subset returns a copy of the schema restricted to the named tables,
// preserving schema order. Unknown names are ignored.
func (s Schema) Subset(tables []string) Schema {
	want := make(map[string]bool, len(tables))
	for _, name := range tables {
		want[strings.ToLower(name)] = true
	}

	var out Schema

	for _, t := range s.Tables {
		if want[strings.ToLower(t.Name)] {
			out.Tables = append(out.Tables, t)
		}
	}

	return out
}

// Merged maps database identifiers to their schemas. Identifiers are unique
// and stable for the lifetime of one query; Order preserves insertion order
// so result combination is deterministic within a run.
type Merged struct {
	Order   []string
	Schemas map[string]Schema
}

// NewMerged creates an empty merged schema collection.
func NewMerged() *Merged {
	return &Merged{Schemas: make(map[string]Schema)}
}

// Add registers a database schema under the given identifier. Re-adding an
// identifier replaces the schema but keeps its original position.
func (m *Merged) Add(database string, s Schema) {
	if _, exists := m.Schemas[database]; !exists {
		m.Order = append(m.Order, database)
	}

	m.Schemas[database] = s
}

// Len returns the number of registered databases.
func (m *Merged) Len() int {
	return len(m.Order)
}

// Describe renders every database's schema, each prefixed with its
// identifier, in registration order.
func (m *Merged) Describe() string {
	var sb strings.Builder

	for _, db := range m.Order {
		sb.WriteString(fmt.Sprintf("=== Database: %s ===\n", db))
		sb.WriteString(m.Schemas[db].Describe())
	}

	return sb.String()
}
