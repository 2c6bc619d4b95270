package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Hello, WORLD! hello again: abc123def 42 café")

	assert.Equal(t, map[string]struct{}{
		"hello": {},
		"world": {},
		"again": {},
		"abc":   {},
		"def":   {},
		"caf":   {},
	}, tokens)
}

func TestTokenize_NoLetters(t *testing.T) {
	assert.Empty(t, Tokenize("123 456 !!! --- ..."))
	assert.Empty(t, Tokenize(""))
}

func TestSimilarity_Jaccard(t *testing.T) {
	// {cat, dog} vs {cat}: 1 shared over 2 distinct
	assert.InDelta(t, 0.5, Similarity("cat cat dog", "cat"), 1e-9)
	// {a, b, c} vs {b, c, d}: 2 / 4
	assert.InDelta(t, 0.5, Similarity("a b c", "b c d"), 1e-9)
	assert.Equal(t, 0.0, Similarity("alpha beta", "gamma delta"))
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"The quick brown fox", "a lazy dog and a quick fox"},
		{"", "anything"},
		{"numbers 123 only", "only numbers"},
		{"Go is fun", "go IS FUN!!!"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarity_SelfIsOne(t *testing.T) {
	for _, text := range []string{"a", "Retrieval augmented generation", "x1y2z3"} {
		assert.Equal(t, 1.0, Similarity(text, text), text)
	}
}

func TestSimilarity_EmptySideIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "anything"))
	assert.Equal(t, 0.0, Similarity("anything", ""))
	assert.Equal(t, 0.0, Similarity("2024", "2024"))
}

func TestSimilarity_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Hello World", "hello world"))
}
