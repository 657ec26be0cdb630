package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name     string
		query    string
		max      int
		contains []string
	}{
		{
			name:     "plain english",
			query:    "show top 5 customers by order total",
			max:      10,
			contains: []string{"custom", "order", "total"},
		},
		{
			name:     "camel case identifiers",
			query:    "find rows where userName matches orderTotal",
			max:      10,
			contains: []string{"user", "name", "order", "total"},
		},
		{
			name:     "chinese query",
			query:    "统计客户销售金额",
			max:      10,
			contains: []string{"统计", "客户", "销售", "金额"},
		},
		{
			name:     "mixed script",
			query:    "查询user表的订单",
			max:      10,
			contains: []string{"查询", "user", "订单"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.query, tt.max)

			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestExtractor_VersionStringsSurviveIntact(t *testing.T) {
	e := NewExtractor()

	got := e.Extract("which builds failed on v1.2.3-alpha+build.1 yesterday", 10)

	assert.Contains(t, got, "v1.2.3-alpha+build.1")
	assert.NotContains(t, got, "alpha")
}

func TestExtractor_VersionKeepsPosition(t *testing.T) {
	e := NewExtractor()

	got := e.ExtractScored("nginx v2.0.0 mysql kafka json graphql", 10)

	scores := make(map[string]float64, len(got))
	kinds := make(map[string]Kind, len(got))

	for _, kw := range got {
		scores[kw.Text] = kw.Score
		kinds[kw.Text] = kw.Kind
	}

	assert.Contains(t, scores, "v2.0.0")
	assert.Equal(t, KindCode, kinds["v2.0.0"])

	// The version occupies its original slot, so the token right after it
	// sits deep inside the co-occurrence window while the last token sits
	// at the edge. Appending the version at the end would invert this.
	assert.Greater(t, scores["mysql"], scores["json"])
	assert.Greater(t, scores["v2.0.0"], scores["graphql"])
}

func TestExtractor_EmptyAndStopWordOnly(t *testing.T) {
	e := NewExtractor()

	assert.Empty(t, e.Extract("", 10))
	assert.Empty(t, e.Extract("   ", 10))
	assert.Empty(t, e.Extract("the and of with", 10))
	assert.Empty(t, e.Extract("show me all of them", 0))
}

func TestExtractor_NoDuplicatesNoStopWords(t *testing.T) {
	e := NewExtractor()
	stops := DefaultStopWords()

	got := e.Extract("customers customers order the order from customers", 20)

	seen := make(map[string]bool)

	for _, kw := range got {
		assert.False(t, seen[kw], "duplicate keyword %q", kw)
		assert.False(t, stops.Contains(kw), "stop word %q returned", kw)

		seen[kw] = true
	}

	assert.Contains(t, got, "custom")
	assert.Contains(t, got, "order")
}

func TestExtractor_MaxKeywordsLimit(t *testing.T) {
	e := NewExtractor()

	got := e.Extract("customers orders products invoices shipments payments", 3)

	assert.Len(t, got, 3)
}

func TestExtractor_ScoredKindTags(t *testing.T) {
	e := NewExtractor()

	got := e.ExtractScored("deploy v2.0.1 to production cluster", 10)

	var sawCode, sawWord bool

	for _, kw := range got {
		switch kw.Kind {
		case KindCode:
			sawCode = true

			assert.Equal(t, "v2.0.1", kw.Text)
		case KindWord:
			sawWord = true
		}

		assert.Positive(t, kw.Score)
	}

	assert.True(t, sawCode, "expected a code-kind keyword")
	assert.True(t, sawWord, "expected word-kind keywords")
}

func TestExtractor_ScoresDescending(t *testing.T) {
	e := NewExtractor()

	got := e.ExtractScored("customer order customer invoice order customer", 10)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}
