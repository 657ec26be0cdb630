package token

import "sort"

// rakeWindow is the symmetric co-occurrence window used for degree counting.
const rakeWindow = 3

// scored pairs a token with its RAKE score, keeping first-seen order for
// stable tie-breaking.
type scored struct {
	text  string
	score float64
	first int
}

// rakeScore ranks content tokens by degree(word)/frequency(word), where
// degree counts co-occurrences (plus self) inside a symmetric window over
// the token sequence and frequency counts raw occurrences. The input must
// already be filtered down to content words.
func rakeScore(tokens []string) []scored {
	if len(tokens) == 0 {
		return nil
	}

	degree := make(map[string]float64)
	freq := make(map[string]float64)
	first := make(map[string]int)

	for i, tok := range tokens {
		freq[tok]++

		if _, seen := first[tok]; !seen {
			first[tok] = i
		}

		// Self plus neighbors within the window.
		degree[tok]++

		for j := i - rakeWindow; j <= i+rakeWindow; j++ {
			if j == i || j < 0 || j >= len(tokens) {
				continue
			}

			degree[tok]++
		}
	}

	out := make([]scored, 0, len(freq))
	for tok := range freq {
		out = append(out, scored{
			text:  tok,
			score: degree[tok] / freq[tok],
			first: first[tok],
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].score != out[b].score {
			return out[a].score > out[b].score
		}

		return out[a].first < out[b].first
	})

	return out
}
