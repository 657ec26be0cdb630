package token

import (
	"testing"
)

func TestStem(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"caresses", "caress"},
		{"ponies", "poni"},
		{"flies", "fli"},
		{"cats", "cat"},
		{"running", "run"},
		{"hopping", "hop"},
		{"filing", "file"},
		{"connected", "connect"},
		{"connecting", "connect"},
		{"connection", "connect"},
		{"relational", "relat"},
		{"conditional", "condit"},
		{"generation", "gener"},
		{"generalization", "gener"},
		{"happiness", "happi"},
		{"happy", "happi"},
		{"customers", "custom"},
		{"orders", "order"},
		{"queries", "queri"},
		{"tables", "tabl"},
		{"executed", "execut"},
		{"maximum", "maximum"},
		{"sky", "sky"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := Stem(tt.word); got != tt.want {
				t.Errorf("Stem(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestStem_Idempotent(t *testing.T) {
	words := []string{
		"running", "hopping", "connected", "connection", "connecting",
		"relational", "conditional", "generation", "generalization",
		"happiness", "happy", "customers", "orders", "queries",
		"tables", "executed", "maximum", "keywords", "segments",
		"filing", "flies", "caresses", "cats", "tokens", "linked",
	}

	for _, w := range words {
		once := Stem(w)
		twice := Stem(once)

		if once != twice {
			t.Errorf("Stem not idempotent for %q: first %q, second %q", w, once, twice)
		}
	}
}

func TestStem_ShortWordsUnchanged(t *testing.T) {
	for _, w := range []string{"a", "go", "io", ""} {
		if got := Stem(w); got != w {
			t.Errorf("Stem(%q) = %q, want unchanged", w, got)
		}
	}
}
