// Package executor orchestrates one query turn: linking, generation,
// validation, approval gating for writes, parallel execution across
// databases, and result combination.
package executor

import (
	"regexp"
	"strings"
)

// Classification tags one statement for the execution paths.
type Classification struct {
	// Operation is the uppercased leading keyword.
	Operation string
	// IsWrite selects the dry-run plus approval path.
	IsWrite bool
	// IsHighRisk marks operations that destroy data or structure.
	IsHighRisk bool
}

var writeOperations = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"TRUNCATE": true,
}

var highRiskOperations = map[string]bool{
	"DROP":     true,
	"TRUNCATE": true,
	"ALTER":    true,
}

var wherePattern = regexp.MustCompile(`(?i)\bWHERE\b`)

// Classify tags a statement by leading-keyword inspection. Unrecognized
// statements default to the read path, where execution errors are recovered
// per statement anyway.
func Classify(sql string) Classification {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return Classification{}
	}

	op := strings.ToUpper(fields[0])

	c := Classification{
		Operation: op,
		IsWrite:   writeOperations[op],
	}

	if highRiskOperations[op] {
		c.IsHighRisk = true
	}

	// A DELETE with no WHERE clause wipes the whole table.
	if op == "DELETE" && !wherePattern.MatchString(sql) {
		c.IsHighRisk = true
	}

	return c
}
