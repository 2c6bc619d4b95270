package rag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkSource struct {
	pools map[uint][]string
	err   error
	calls int
}

func (f *fakeChunkSource) ListContentsByConversationID(conversationID uint) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pools[conversationID], nil
}

func TestSelectTop_TiesKeepPoolOrderAndZeroIsDropped(t *testing.T) {
	scored := []scoredChunk{
		{content: "c0", score: 0.0},
		{content: "c1", score: 0.7},
		{content: "c2", score: 0.3},
		{content: "c3", score: 0.9},
		{content: "c4", score: 0.7},
	}

	assert.Equal(t, []string{"c3", "c1", "c4"}, selectTop(scored, 3))
}

func TestSelectTop_FewerNonZeroThanK(t *testing.T) {
	scored := []scoredChunk{
		{content: "a", score: 0},
		{content: "b", score: 0.2},
		{content: "c", score: 0},
	}

	assert.Equal(t, []string{"b"}, selectTop(scored, 3))
}

func TestRank(t *testing.T) {
	pool := []string{
		"Bananas are yellow fruit.",
		"Go has goroutines and channels for concurrency.",
		"Channels connect goroutines.",
		"Nothing relevant here at all.",
	}

	got := Rank("How do goroutines use channels?", pool, 3)
	require.Len(t, got, 2)
	assert.Equal(t, "Channels connect goroutines.", got[0])
	assert.Equal(t, "Go has goroutines and channels for concurrency.", got[1])
}

func TestRank_EmptyPoolOrQuery(t *testing.T) {
	assert.Empty(t, Rank("anything", nil, 3))
	assert.Empty(t, Rank("", []string{"some text"}, 3))
	assert.Empty(t, Rank("some", []string{"some text"}, 0))
}

func TestRetriever_Deterministic(t *testing.T) {
	source := &fakeChunkSource{pools: map[uint][]string{
		7: {
			"apple pie recipe",
			"apple orchard",
			"pie crust",
			"apple pie",
			"orange juice",
		},
	}}
	r := NewRetriever(source, DefaultConfig())

	first, err := r.Retrieve(7, "apple pie", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(7, "apple pie", 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"apple pie", "apple pie recipe", "apple orchard"}, first)
}

func TestRetriever_ScopedToConversation(t *testing.T) {
	source := &fakeChunkSource{pools: map[uint][]string{
		1: {"kubernetes pods"},
		2: {"kubernetes services"},
	}}
	r := NewRetriever(source, DefaultConfig())

	got, err := r.Retrieve(2, "kubernetes", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"kubernetes services"}, got)

	got, err = r.Retrieve(3, "kubernetes", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriever_DefaultTopK(t *testing.T) {
	source := &fakeChunkSource{pools: map[uint][]string{
		1: {"go one", "go two", "go three", "go four", "go five"},
	}}
	r := NewRetriever(source, DefaultConfig())

	got, err := r.Retrieve(1, "go", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultTopK)
}

func TestRetriever_SourceError(t *testing.T) {
	boom := errors.New("db down")
	r := NewRetriever(&fakeChunkSource{err: boom}, DefaultConfig())

	_, err := r.Retrieve(1, "q", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
