package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botgpt/internal/model"
	"botgpt/internal/rag"
)

func countRows(t *testing.T, f *fixture, table interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(table).Count(&n).Error)
	return n
}

func TestIngest_DefaultChunking(t *testing.T) {
	f := newFixture(t, rag.DefaultConfig())
	conv := f.create(t, model.ModeRAG, "hello")

	result, err := f.documents.Ingest(IngestInput{
		ConversationID: conv.ID,
		Filename:       "long.txt",
		Text:           strings.Repeat("abcdefghij", 160),
	})
	require.NoError(t, err)
	assert.NotZero(t, result.DocumentID)
	assert.Equal(t, 3, result.NumChunks)

	docs, err := f.documents.List(conv.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "long.txt", docs[0].Filename)
	assert.Equal(t, int64(3), docs[0].NumChunks)

	var indexes []int
	require.NoError(t, f.db.Model(&model.DocumentChunk{}).
		Where("document_id = ?", result.DocumentID).
		Order("chunk_index ASC").
		Pluck("chunk_index", &indexes).Error)
	assert.Equal(t, []int{0, 1, 2}, indexes)
}

func TestIngest_Validation(t *testing.T) {
	cfg := rag.DefaultConfig()
	cfg.SizeCeiling = 50
	f := newFixture(t, cfg)
	conv := f.create(t, model.ModeRAG, "hello")

	_, err := f.documents.Ingest(IngestInput{ConversationID: conv.ID, Filename: "empty.txt", Text: " \n "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrDocumentEmpty)

	_, err = f.documents.Ingest(IngestInput{ConversationID: conv.ID, Filename: "big.txt", Text: strings.Repeat("a", 51)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	result, err := f.documents.Ingest(IngestInput{ConversationID: conv.ID, Filename: "edge.txt", Text: "  " + strings.Repeat("a", 50) + "  "})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumChunks)

	_, err = f.documents.Ingest(IngestInput{ConversationID: 999, Filename: "x.txt", Text: "text"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int64(1), countRows(t, f, &model.Document{}))
	assert.Equal(t, int64(1), countRows(t, f, &model.DocumentChunk{}))
}

func TestIngestPDF_RejectsUnreadableFile(t *testing.T) {
	f := newFixture(t, rag.DefaultConfig())
	conv := f.create(t, model.ModeRAG, "hello")

	_, err := f.documents.IngestPDF(conv.ID, "fake.pdf", strings.NewReader("not really a pdf"))
	assert.ErrorIs(t, err, ErrIngestion)

	_, err = f.documents.IngestPDF(conv.ID, "empty.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrDocumentEmpty)

	_, err = f.documents.IngestPDF(404, "fake.pdf", strings.NewReader("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, countRows(t, f, &model.Document{}))
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t, rag.DefaultConfig())
	conv := f.create(t, model.ModeRAG, "hello")
	other := f.create(t, model.ModeRAG, "other")

	result, err := f.documents.Ingest(IngestInput{ConversationID: conv.ID, Filename: "a.txt", Text: "alpha beta gamma"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.documents.Delete(other.ID, result.DocumentID), ErrDocumentNotFound)
	require.NoError(t, f.documents.Delete(conv.ID, result.DocumentID))
	assert.ErrorIs(t, f.documents.Delete(conv.ID, result.DocumentID), ErrNotFound)
	assert.Zero(t, countRows(t, f, &model.DocumentChunk{}))
}

func TestDeleteConversationCascadesDocuments(t *testing.T) {
	f := newFixture(t, rag.DefaultConfig())
	ctx := context.Background()
	conv := f.create(t, model.ModeRAG, "hello")

	_, err := f.documents.Ingest(IngestInput{ConversationID: conv.ID, Filename: "a.txt", Text: strings.Repeat("word ", 400)})
	require.NoError(t, err)

	require.NoError(t, f.conversations.Delete(ctx, conv.ID))

	assert.Zero(t, countRows(t, f, &model.Conversation{}))
	assert.Zero(t, countRows(t, f, &model.Message{}))
	assert.Zero(t, countRows(t, f, &model.Document{}))
	assert.Zero(t, countRows(t, f, &model.DocumentChunk{}))

	_, err = f.documents.List(conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
