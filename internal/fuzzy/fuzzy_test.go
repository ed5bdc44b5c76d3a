package fuzzy

import "testing"

func TestScoreExactMatch(t *testing.T) {
	cases := []struct{ query, candidate string }{
		{"Ash", "Ash"},
		{"ash", "ASH"},
		{"  Knight  ", "knight"},
	}
	for _, c := range cases {
		if got := Score(c.query, c.candidate); got != 100 {
			t.Errorf("Score(%q, %q) = %d, want 100", c.query, c.candidate, got)
		}
	}
}

func TestScoreRanges(t *testing.T) {
	cases := []struct {
		query, candidate string
		min, max         int
	}{
		// OCR-style typos should stay above the acceptance threshold.
		{"Kn1ght", "Knight", 50, 99},
		{"Dragonlord", "DragonIord", 50, 99},
		// Substring containment scores high but below exact.
		{"Dragon", "Dragonlord", 80, 99},
		{"Dragonlord99", "Dragonlord", 80, 99},
		// Unrelated names stay well below the threshold.
		{"Ash", "Dragonlord", 0, 30},
		{"xqz", "Knight", 0, 30},
	}
	for _, c := range cases {
		got := Score(c.query, c.candidate)
		if got < c.min || got > c.max {
			t.Errorf("Score(%q, %q) = %d, want in [%d, %d]", c.query, c.candidate, got, c.min, c.max)
		}
	}
}

func TestScoreMultibyteNames(t *testing.T) {
	// One edit over four runes, not over twelve bytes.
	if got := Score("ドラゴン", "ドラゴラ"); got != 75 {
		t.Errorf("Score = %d, want 75", got)
	}
	// Containment weighted by rune counts: 3 of 7 runes covered.
	if got := Score("Ash", "Ashドラゴン"); got != 88 {
		t.Errorf("containment Score = %d, want 88", got)
	}
}

func TestScoreEmptyInputs(t *testing.T) {
	if got := Score("", "Knight"); got != 0 {
		t.Errorf("empty query scored %d, want 0", got)
	}
	if got := Score("Knight", ""); got != 0 {
		t.Errorf("empty candidate scored %d, want 0", got)
	}
}

func TestScoreBounds(t *testing.T) {
	pairs := []struct{ a, b string }{
		{"a", "completely different string"},
		{"Knight", "Knight"},
		{"ab", "ba"},
	}
	for _, p := range pairs {
		got := Score(p.a, p.b)
		if got < 0 || got > 100 {
			t.Errorf("Score(%q, %q) = %d, out of [0, 100]", p.a, p.b, got)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"same", "same", 0},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
