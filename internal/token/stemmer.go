package token

import "strings"

// Stem reduces an English word to its root form using the classical Porter
// algorithm: five ordered suffix-stripping passes driven by the consonant/
// vowel sequence measure. Input is lowercased; words of length <= 2 are
// returned unchanged.
func Stem(word string) string {
	w := strings.ToLower(word)
	if len(w) <= 2 {
		return w
	}

	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)

	return w
}

// isCons reports whether w[i] is a consonant. 'y' counts as a consonant when
// it starts the word or follows a vowel.
func isCons(w string, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}

		return !isCons(w, i-1)
	default:
		return true
	}
}

// measure counts the number of VC sequences ("m") in the stem.
func measure(w string) int {
	m := 0
	i := 0
	n := len(w)

	// Skip initial consonant run.
	for i < n && isCons(w, i) {
		i++
	}

	for i < n {
		// Vowel run.
		for i < n && !isCons(w, i) {
			i++
		}

		if i >= n {
			break
		}

		// Consonant run closes one VC pair.
		for i < n && isCons(w, i) {
			i++
		}

		m++
	}

	return m
}

// hasVowel reports whether the stem contains at least one vowel.
func hasVowel(w string) bool {
	for i := 0; i < len(w); i++ {
		if !isCons(w, i) {
			return true
		}
	}

	return false
}

// endsDoubleCons reports whether the stem ends in a double consonant.
func endsDoubleCons(w string) bool {
	n := len(w)
	if n < 2 {
		return false
	}

	return w[n-1] == w[n-2] && isCons(w, n-1)
}

// endsCVC reports whether the stem ends consonant-vowel-consonant where the
// final consonant is not w, x, or y.
func endsCVC(w string) bool {
	n := len(w)
	if n < 3 {
		return false
	}

	if !isCons(w, n-3) || isCons(w, n-2) || !isCons(w, n-1) {
		return false
	}

	last := w[n-1]

	return last != 'w' && last != 'x' && last != 'y'
}

// replaceSuffix replaces suffix with repl when the remaining stem's measure
// exceeds minMeasure. Returns the (possibly unchanged) word and whether the
// suffix matched at all.
func replaceSuffix(w, suffix, repl string, minMeasure int) (string, bool) {
	if !strings.HasSuffix(w, suffix) {
		return w, false
	}

	stem := w[:len(w)-len(suffix)]
	if measure(stem) > minMeasure {
		return stem + repl, true
	}

	return w, true
}

func step1a(w string) string {
	switch {
	case strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}

	return w
}

func step1b(w string) string {
	if strings.HasSuffix(w, "eed") {
		stem := w[:len(w)-3]
		if measure(stem) > 0 {
			return w[:len(w)-1]
		}

		return w
	}

	if strings.HasSuffix(w, "ed") {
		stem := w[:len(w)-2]
		if hasVowel(stem) {
			return step1bCleanup(stem)
		}

		return w
	}

	if strings.HasSuffix(w, "ing") {
		stem := w[:len(w)-3]
		if hasVowel(stem) {
			return step1bCleanup(stem)
		}

		return w
	}

	return w
}

// step1bCleanup restores a trailing 'e' or trims a doubled consonant after
// -ed/-ing removal.
func step1bCleanup(w string) string {
	switch {
	case strings.HasSuffix(w, "at"), strings.HasSuffix(w, "bl"), strings.HasSuffix(w, "iz"):
		return w + "e"
	case endsDoubleCons(w):
		last := w[len(w)-1]
		if last != 'l' && last != 's' && last != 'z' {
			return w[:len(w)-1]
		}

		return w
	case measure(w) == 1 && endsCVC(w):
		return w + "e"
	}

	return w
}

func step1c(w string) string {
	if strings.HasSuffix(w, "y") && hasVowel(w[:len(w)-1]) {
		return w[:len(w)-1] + "i"
	}

	return w
}

// step2 pairs are ordered so longer suffixes are tried before their
// substrings.
var step2Suffixes = []struct{ suffix, repl string }{
	{"ational", "ate"},
	{"tional", "tion"},
	{"enci", "ence"},
	{"anci", "ance"},
	{"izer", "ize"},
	{"abli", "able"},
	{"alli", "al"},
	{"entli", "ent"},
	{"eli", "e"},
	{"ousli", "ous"},
	{"ization", "ize"},
	{"ation", "ate"},
	{"ator", "ate"},
	{"alism", "al"},
	{"iveness", "ive"},
	{"fulness", "ful"},
	{"ousness", "ous"},
	{"aliti", "al"},
	{"iviti", "ive"},
	{"biliti", "ble"},
}

func step2(w string) string {
	for _, s := range step2Suffixes {
		if out, matched := replaceSuffix(w, s.suffix, s.repl, 0); matched {
			return out
		}
	}

	return w
}

var step3Suffixes = []struct{ suffix, repl string }{
	{"icate", "ic"},
	{"ative", ""},
	{"alize", "al"},
	{"iciti", "ic"},
	{"ical", "ic"},
	{"ful", ""},
	{"ness", ""},
}

func step3(w string) string {
	for _, s := range step3Suffixes {
		if out, matched := replaceSuffix(w, s.suffix, s.repl, 0); matched {
			return out
		}
	}

	return w
}

// step4 strips residual suffixes when the stem measure exceeds 1. "ion" only
// strips after 's' or 't'.
var step4Suffixes = []string{
	"al", "ance", "ence", "er", "ic", "able", "ible", "ant",
	"ement", "ment", "ent", "ion", "ou", "ism", "ate", "iti",
	"ous", "ive", "ize",
}

func step4(w string) string {
	for _, suffix := range step4Suffixes {
		if !strings.HasSuffix(w, suffix) {
			continue
		}

		stem := w[:len(w)-len(suffix)]

		if suffix == "ion" {
			if len(stem) == 0 || (stem[len(stem)-1] != 's' && stem[len(stem)-1] != 't') {
				return w
			}
		}

		if measure(stem) > 1 {
			return stem
		}

		return w
	}

	return w
}

func step5a(w string) string {
	if !strings.HasSuffix(w, "e") {
		return w
	}

	stem := w[:len(w)-1]
	m := measure(stem)

	if m > 1 || (m == 1 && !endsCVC(stem)) {
		return stem
	}

	return w
}

func step5b(w string) string {
	if strings.HasSuffix(w, "ll") && measure(w) > 1 {
		return w[:len(w)-1]
	}

	return w
}
