package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botgpt/internal/model"
)

// ErrConversationMissing is returned when a document is written for a
// conversation that no longer exists.
var ErrConversationMissing = errors.New("conversation missing")

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateWithChunks writes the document and all of its chunks atomically.
// Chunk indexes are assigned from the slice order.
func (r *DocumentRepository) CreateWithChunks(doc *model.Document, contents []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&model.Conversation{}).Where("id = ?", doc.ConversationID).Count(&owners).Error; err != nil {
			return fmt.Errorf("check conversation failed: %w", err)
		}
		if owners == 0 {
			return ErrConversationMissing
		}
		if err := tx.Omit("Chunks").Create(doc).Error; err != nil {
			return fmt.Errorf("create document failed: %w", err)
		}
		if len(contents) == 0 {
			return nil
		}
		chunks := make([]model.DocumentChunk, len(contents))
		for i, content := range contents {
			chunks[i] = model.DocumentChunk{
				DocumentID: doc.ID,
				ChunkIndex: i,
				Content:    content,
			}
		}
		if err := tx.CreateInBatches(&chunks, 200).Error; err != nil {
			return fmt.Errorf("create document chunks failed: %w", err)
		}
		doc.Chunks = chunks
		return nil
	})
}

func (r *DocumentRepository) ListByConversationID(conversationID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("conversation_id = ?", conversationID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) CountChunks(documentID uint) (int64, error) {
	var n int64
	if err := r.db.Model(&model.DocumentChunk{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count document chunks failed: %w", err)
	}
	return n, nil
}

// DeleteCascade removes the document and its chunks.
func (r *DocumentRepository) DeleteCascade(id, conversationID uint) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND conversation_id = ?", id, conversationID).Delete(&model.Document{})
		if res.Error != nil {
			return fmt.Errorf("delete document failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentChunk{}).Error; err != nil {
			return fmt.Errorf("delete document chunks failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
