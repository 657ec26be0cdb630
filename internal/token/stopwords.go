package token

// StopWords is an immutable membership set for filtering non-content words.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a stop-word set from the given words.
func NewStopWords(words []string) *StopWords {
	s := &StopWords{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.words[w] = struct{}{}
	}

	return s
}

// Contains reports whether the word is a stop word.
func (s *StopWords) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// DefaultStopWords returns the built-in English and Chinese stop-word set.
// Stemmed forms of common function words are included so filtering holds
// after normalization.
func DefaultStopWords() *StopWords {
	return NewStopWords(defaultStopWordList)
}

var defaultStopWordList = []string{
	// English function words.
	"a", "an", "the", "and", "or", "but", "if", "then", "else",
	"of", "in", "on", "at", "to", "for", "from", "by", "with",
	"about", "as", "into", "through", "during", "before", "after",
	"is", "are", "was", "were", "be", "been", "being", "am",
	"do", "does", "did", "doing", "have", "has", "had", "having",
	"i", "me", "my", "we", "our", "you", "your", "he", "she", "it",
	"its", "they", "them", "their", "this", "that", "these", "those",
	"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "some", "such",
	"no", "nor", "not", "only", "own", "same", "so", "than", "too", "very",
	"can", "will", "just", "should", "would", "could", "may", "might",
	"please", "want", "need", "show", "give", "get", "let",
	// Stemmed variants that survive normalization.
	"pleas", "onli", "veri", "thi", "thes", "wa", "doe", "ha",
	"ar", "thei", "ani", "mai", "dure", "befor",
	// Chinese function words.
	"的", "了", "和", "是", "在", "我", "有", "他", "这", "中",
	"大", "来", "上", "个", "到", "说", "们", "为", "子", "你",
	"地", "出", "道", "也", "时", "年", "得", "就", "那", "要",
	"下", "以", "生", "会", "自", "着", "去", "之", "过", "家",
	"请", "把", "被", "让", "给", "从", "向", "或", "及", "与",
	"吗", "呢", "吧", "啊", "哪", "什么", "怎么", "多少",
}
