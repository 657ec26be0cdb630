// Package token turns raw natural-language queries into ranked keyword lists.
// It handles English, Chinese, and code-like tokens (version strings,
// camelCase identifiers) in one portable pipeline.
package token

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind tags how a keyword was produced.
type Kind int

const (
	// KindWord is a natural-language word (stemmed for English).
	KindWord Kind = iota
	// KindCode is a code-like token such as a version string, preserved
	// verbatim.
	KindCode
)

// Keyword is a normalized token with its relevance score. Keywords are
// produced fresh per query and never cached.
type Keyword struct {
	Text  string
	Kind  Kind
	Score float64
}

// semverPattern matches semantic-version-like substrings, including
// prerelease and build metadata (v1.2.3-alpha+build.1).
var semverPattern = regexp.MustCompile(
	`v?\d+\.\d+\.\d+(?:-[0-9A-Za-z][0-9A-Za-z.-]*)?(?:\+[0-9A-Za-z][0-9A-Za-z.-]*)?`,
)

// Extractor converts queries to keywords. Construct with NewExtractor; the
// zero value is not usable.
type Extractor struct {
	dict  *Dictionary
	stops *StopWords
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithDictionary replaces the CJK segmentation dictionary.
func WithDictionary(d *Dictionary) Option {
	return func(e *Extractor) { e.dict = d }
}

// WithStopWords replaces the stop-word set.
func WithStopWords(s *StopWords) Option {
	return func(e *Extractor) { e.stops = s }
}

// NewExtractor creates an extractor with the default dictionary and
// stop words unless overridden.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		dict:  DefaultDictionary(),
		stops: DefaultStopWords(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract returns up to maxKeywords keywords for the query, ranked by
// descending RAKE score. Duplicates and stop words never appear in the
// result; an empty or stop-word-only query yields an empty list.
func (e *Extractor) Extract(query string, maxKeywords int) []string {
	ranked := e.ExtractScored(query, maxKeywords)

	out := make([]string, 0, len(ranked))
	for _, kw := range ranked {
		out = append(out, kw.Text)
	}

	return out
}

// ExtractScored is Extract with scores and kind tags attached.
func (e *Extractor) ExtractScored(query string, maxKeywords int) []Keyword {
	if strings.TrimSpace(query) == "" || maxKeywords <= 0 {
		return nil
	}

	// Shield version strings before any splitting so boundaries inside
	// them do not fragment the token. Each version slots back into its
	// original position so co-occurrence windows see the true neighbors.
	matches := semverPattern.FindAllStringIndex(query, -1)

	var tokens []string

	codeKinds := make(map[string]bool, len(matches))

	last := 0

	for _, m := range matches {
		tokens = append(tokens, e.tokenize(query[last:m[0]])...)

		version := query[m[0]:m[1]]
		tokens = append(tokens, version)
		codeKinds[version] = true

		last = m[1]
	}

	tokens = append(tokens, e.tokenize(query[last:])...)

	// Content-word filter: stop words and single-character tokens drop out
	// before co-occurrence scoring.
	content := tokens[:0]

	for _, tok := range tokens {
		if e.stops.Contains(tok) {
			continue
		}

		if len([]rune(tok)) <= 1 {
			continue
		}

		content = append(content, tok)
	}

	ranked := rakeScore(content)
	if len(ranked) > maxKeywords {
		ranked = ranked[:maxKeywords]
	}

	out := make([]Keyword, 0, len(ranked))

	for _, s := range ranked {
		kind := KindWord
		if codeKinds[s.text] {
			kind = KindCode
		}

		out = append(out, Keyword{Text: s.text, Kind: kind, Score: s.score})
	}

	return out
}

// tokenize splits text on non-alphanumeric boundaries and dispatches each
// segment to the script-appropriate normalizer.
func (e *Extractor) tokenize(text string) []string {
	var tokens []string

	var segment []rune

	flush := func() {
		if len(segment) > 0 {
			tokens = append(tokens, e.normalizeSegment(segment)...)
			segment = segment[:0]
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			segment = append(segment, r)
			continue
		}

		flush()
	}

	flush()

	return tokens
}

// normalizeSegment partitions a segment into maximal same-script runs and
// normalizes each run: BiMM segmentation for CJK, camelCase/digit splitting
// plus Porter stemming for Latin and code text.
func (e *Extractor) normalizeSegment(segment []rune) []string {
	var tokens []string

	start := 0

	for i := 1; i <= len(segment); i++ {
		if i < len(segment) && isCJK(segment[i]) == isCJK(segment[start]) {
			continue
		}

		run := segment[start:i]

		if isCJK(run[0]) {
			tokens = append(tokens, e.dict.Segment(string(run))...)
		} else {
			tokens = append(tokens, normalizeLatin(run)...)
		}

		start = i
	}

	return tokens
}

// normalizeLatin splits camelCase/PascalCase and digit/letter boundaries,
// lowercases, and stems pure-alpha words.
func normalizeLatin(run []rune) []string {
	var tokens []string

	var word []rune

	flush := func() {
		if len(word) == 0 {
			return
		}

		tok := strings.ToLower(string(word))
		if isAlphaOnly(word) {
			tok = Stem(tok)
		}

		tokens = append(tokens, tok)
		word = word[:0]
	}

	for i, r := range run {
		if i > 0 {
			prev := run[i-1]

			boundary := (unicode.IsUpper(r) && unicode.IsLower(prev)) ||
				(unicode.IsDigit(r) != unicode.IsDigit(prev)) ||
				// End of an uppercase acronym: HTTPServer -> HTTP, Server.
				(unicode.IsUpper(prev) && unicode.IsUpper(r) &&
					i+1 < len(run) && unicode.IsLower(run[i+1]))

			if boundary {
				flush()
			}
		}

		word = append(word, r)
	}

	flush()

	return tokens
}

func isAlphaOnly(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}

	return true
}

// isCJK reports whether the rune belongs to the CJK ranges that segment as
// their own class.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
