package repository

import (
	"fmt"

	"gorm.io/gorm"

	"botgpt/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ListContentsByConversationID flattens the chunks of every document in the
// conversation, ordered by document and then by chunk index.
func (r *ChunkRepository) ListContentsByConversationID(conversationID uint) ([]string, error) {
	var contents []string
	if err := r.db.Model(&model.DocumentChunk{}).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.conversation_id = ?", conversationID).
		Order("documents.id ASC").Order("document_chunks.chunk_index ASC").
		Pluck("document_chunks.content", &contents).Error; err != nil {
		return nil, fmt.Errorf("list chunks by conversation failed: %w", err)
	}
	return contents, nil
}
