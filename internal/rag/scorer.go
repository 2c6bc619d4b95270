package rag

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z]+`)

// Tokenize lowercases text and returns the set of maximal ASCII letter runs.
// Digits, punctuation and non-ASCII characters only separate tokens.
func Tokenize(text string) map[string]struct{} {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index of the two token sets, 0 when either is empty.
func Similarity(query, chunk string) float64 {
	return jaccard(Tokenize(query), Tokenize(chunk))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
