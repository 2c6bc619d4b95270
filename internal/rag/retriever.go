package rag

import (
	"fmt"
	"sort"
)

// ChunkSource yields the flat chunk pool of a conversation, ordered by
// document and then by chunk index.
type ChunkSource interface {
	ListContentsByConversationID(conversationID uint) ([]string, error)
}

type Retriever struct {
	source ChunkSource
	topK   int
}

func NewRetriever(source ChunkSource, cfg Config) *Retriever {
	cfg = cfg.withDefaults()
	return &Retriever{source: source, topK: cfg.TopK}
}

type scoredChunk struct {
	content string
	score   float64
}

// Retrieve returns up to topK chunk texts of the conversation ranked by lexical
// similarity to query. Chunks with a zero score are never returned; a
// non-positive topK falls back to the configured default.
func (r *Retriever) Retrieve(conversationID uint, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = r.topK
	}
	pool, err := r.source.ListContentsByConversationID(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load chunk pool failed: %w", err)
	}
	return Rank(query, pool, topK), nil
}

// Rank scores every chunk of pool against query and selects the best topK.
func Rank(query string, pool []string, topK int) []string {
	if len(pool) == 0 || topK <= 0 {
		return nil
	}
	queryTokens := Tokenize(query)
	scored := make([]scoredChunk, len(pool))
	for i, content := range pool {
		scored[i] = scoredChunk{
			content: content,
			score:   jaccard(queryTokens, Tokenize(content)),
		}
	}
	return selectTop(scored, topK)
}

// selectTop sorts by score descending, keeping pool order between equal
// scores, and cuts at k before dropping zero-score entries.
func selectTop(scored []scoredChunk, k int) []string {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if k > len(scored) {
		k = len(scored)
	}
	out := make([]string, 0, k)
	for _, s := range scored[:k] {
		if s.score <= 0 {
			break
		}
		out = append(out, s.content)
	}
	return out
}
