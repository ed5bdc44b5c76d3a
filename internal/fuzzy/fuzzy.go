// Package fuzzy scores the similarity of two display names. The scorer
// is a pure function so resolution logic can be tested against a fixed
// table of inputs.
package fuzzy

import (
	"strings"
	"unicode/utf8"
)

// Score returns a 0-100 similarity between query and candidate,
// case-insensitive. Exact matches score 100; containment scores high;
// everything else falls back to normalized Levenshtein distance.
func Score(query, candidate string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))

	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 100
	}

	// Substring containment: weight by how much of the longer name the
	// shorter one covers, capped below an exact match.
	if strings.Contains(c, q) {
		return containmentScore(q, c)
	}
	if strings.Contains(q, c) {
		return containmentScore(c, q)
	}

	dist := levenshtein(q, c)
	maxLen := utf8.RuneCountInString(q)
	if n := utf8.RuneCountInString(c); n > maxLen {
		maxLen = n
	}
	score := 100 - dist*100/maxLen
	if score < 0 {
		score = 0
	}
	return score
}

// containmentScore counts runes, not bytes, so multibyte display names
// are weighted the same as ASCII ones.
func containmentScore(inner, outer string) int {
	score := 80 + utf8.RuneCountInString(inner)*19/utf8.RuneCountInString(outer)
	if score > 99 {
		score = 99
	}
	return score
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
