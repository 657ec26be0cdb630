package linker

import (
	"context"
	"strings"

	"github.com/Malumbo21/askdb/internal/schema"
	"github.com/Malumbo21/askdb/internal/token"
)

// Match weights. An exact table-name hit outranks substring containment,
// which outranks a comment mention, which outranks a fuzzy hit. Each
// matching column adds a flat bonus to its table.
const (
	weightExact     = 1.0
	weightSubstring = 0.7
	weightComment   = 0.5
	weightFuzzy     = 0.3
	weightColumn    = 0.4
)

// fuzzyDivisor sets the Levenshtein tolerance: distance must not exceed
// min(len)/fuzzyDivisor.
const fuzzyDivisor = 3

// KeywordConfig tunes the keyword strategy.
type KeywordConfig struct {
	MaxKeywords int
}

// DefaultKeywordConfig returns the default tuning.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{MaxKeywords: 10}
}

// KeywordStrategy scores tables and columns against extracted keywords. It
// needs no network access and always produces a result, which makes it the
// terminal fallback in every chain.
type KeywordStrategy struct {
	extractor *token.Extractor
	config    KeywordConfig
}

// NewKeywordStrategy creates a keyword strategy with the given extractor.
func NewKeywordStrategy(extractor *token.Extractor, cfg KeywordConfig) *KeywordStrategy {
	if cfg.MaxKeywords < 1 {
		cfg.MaxKeywords = DefaultKeywordConfig().MaxKeywords
	}

	return &KeywordStrategy{extractor: extractor, config: cfg}
}

// Name identifies the strategy in logs.
func (s *KeywordStrategy) Name() string { return "keyword" }

// Keywords extracts ranked keywords for the query.
func (s *KeywordStrategy) Keywords(query string) []string {
	return s.extractor.Extract(query, s.config.MaxKeywords)
}

// Link scores every table against the query keywords and keeps those with a
// positive score. When nothing scores, all tables are kept: over-inclusion
// merely costs prompt space, while over-pruning loses answers.
func (s *KeywordStrategy) Link(_ context.Context, query string, sch schema.Schema) (*Result, error) {
	keywords := s.Keywords(query)

	scores := make(map[string]float64, len(sch.Tables))

	var (
		tables  []string
		columns []string
	)

	for _, table := range sch.Tables {
		score := 0.0

		for _, kw := range keywords {
			score += matchScore(table.Name, table.Comment, kw)

			for _, col := range table.Columns {
				if containsFold(col.Name, kw) {
					score += weightColumn
				}
			}
		}

		if score > 0 {
			scores[table.Name] = score
			tables = append(tables, table.Name)

			for _, col := range table.Columns {
				for _, kw := range keywords {
					if matchScore(col.Name, col.Comment, kw) > 0 {
						columns = append(columns, table.Name+"."+col.Name)
						break
					}
				}
			}
		}
	}

	if len(tables) == 0 {
		return &Result{
			Tables:     sch.TableNames(),
			Keywords:   keywords,
			Confidence: 0,
		}, nil
	}

	sortByScore(tables, scores)

	var total float64
	for _, name := range tables {
		total += scores[name]
	}

	return &Result{
		Tables:     tables,
		Columns:    columns,
		Keywords:   keywords,
		Confidence: clamp(total / float64(len(tables))),
	}, nil
}

// matchScore returns the weight of the strongest match between a keyword
// and a named, optionally commented schema object.
func matchScore(name, comment, keyword string) float64 {
	lowName := strings.ToLower(name)
	lowKw := strings.ToLower(keyword)

	switch {
	case lowName == lowKw:
		return weightExact
	case strings.Contains(lowName, lowKw) || strings.Contains(lowKw, lowName):
		return weightSubstring
	case comment != "" && strings.Contains(strings.ToLower(comment), lowKw):
		return weightComment
	case fuzzyMatch(lowName, lowKw):
		return weightFuzzy
	default:
		return 0
	}
}

func containsFold(name, keyword string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(keyword))
}

// fuzzyMatch reports whether two strings are within the Levenshtein
// tolerance of each other.
func fuzzyMatch(a, b string) bool {
	ra, rb := []rune(a), []rune(b)

	minLen := len(ra)
	if len(rb) < minLen {
		minLen = len(rb)
	}

	limit := minLen / fuzzyDivisor
	if limit == 0 {
		return false
	}

	return levenshtein(ra, rb) <= limit
}

// levenshtein computes edit distance using two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j-1]+cost, prev[j]+1, curr[j-1]+1)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

var _ Strategy = (*KeywordStrategy)(nil)
