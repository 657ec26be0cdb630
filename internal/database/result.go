// Package database provides connections to the target databases: schema
// introspection, query execution, dry runs and sample-row fetches, with
// dialect differences isolated behind the Dialect interface.
package database

// QueryResult holds rows from one statement. Cell values are rendered as
// strings; NULL becomes the empty string. Immutable once produced.
type QueryResult struct {
	Columns  []string
	Rows     [][]string
	RowCount int
}

// UpdateResult reports a committed write.
type UpdateResult struct {
	Success      bool
	AffectedRows int64
	Message      string
}

// DryRunResult previews a write without committing it.
type DryRunResult struct {
	Valid         bool
	EstimatedRows int64
	Warnings      []string
	Message       string
}

// DatabaseColumn is the synthetic column prepended when combining results
// from several databases.
const DatabaseColumn = "_database"

// CombineResults merges per-database results in the given identifier order.
// A single result passes through unchanged; multiple results gain a
// DatabaseColumn prefix and are concatenated, rows padded to the widest
// result.
func CombineResults(order []string, results map[string]*QueryResult) *QueryResult {
	present := make([]string, 0, len(order))

	for _, db := range order {
		if results[db] != nil {
			present = append(present, db)
		}
	}

	if len(present) == 0 {
		return &QueryResult{}
	}

	if len(present) == 1 {
		return results[present[0]]
	}

	widest := 0
	for _, db := range present {
		if len(results[db].Columns) > widest {
			widest = len(results[db].Columns)
		}
	}

	combined := &QueryResult{Columns: make([]string, 0, widest+1)}
	combined.Columns = append(combined.Columns, DatabaseColumn)

	for _, db := range present {
		if len(results[db].Columns) == widest {
			combined.Columns = append(combined.Columns, results[db].Columns...)
			break
		}
	}

	for _, db := range present {
		for _, row := range results[db].Rows {
			merged := make([]string, 0, widest+1)
			merged = append(merged, db)
			merged = append(merged, row...)

			for len(merged) < widest+1 {
				merged = append(merged, "")
			}

			combined.Rows = append(combined.Rows, merged)
		}
	}

	combined.RowCount = len(combined.Rows)

	return combined
}
