package generator

import (
	"regexp"
	"strings"
)

var (
	fencePattern    = regexp.MustCompile("(?s)```(?:[sS][qQ][lL])?[ \t]*\n(.*?)```")
	databasePattern = regexp.MustCompile(`(?im)^\s*--\s*database:\s*(\S+)\s*$`)
)

// ParseBlocks extracts SQL statements from fenced code blocks in a model
// response. Each block's routing comment selects its target database; the
// comment is stripped before the SQL goes anywhere near a connection. A
// block with no comment targets the sole configured database, or the first
// one when several are configured.
func ParseBlocks(response string, databases []string) []Block {
	var blocks []Block

	for _, m := range fencePattern.FindAllStringSubmatch(response, -1) {
		body := m[1]

		database := ""
		if dm := databasePattern.FindStringSubmatch(body); dm != nil {
			database = dm[1]
		}

		sql := strings.TrimSpace(databasePattern.ReplaceAllString(body, ""))
		if sql == "" {
			continue
		}

		if database == "" && len(databases) > 0 {
			database = databases[0]
		}

		blocks = append(blocks, Block{Database: database, SQL: sql})
	}

	return blocks
}
