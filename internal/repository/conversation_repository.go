package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botgpt/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateWithMessage stores a new conversation and its opening user message together.
func (r *ConversationRepository) CreateWithMessage(conversation *model.Conversation, first *model.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Messages", "Documents").Create(conversation).Error; err != nil {
			return fmt.Errorf("create conversation failed: %w", err)
		}
		first.ConversationID = conversation.ID
		if err := tx.Create(first).Error; err != nil {
			return fmt.Errorf("create first message failed: %w", err)
		}
		return nil
	})
}

func (r *ConversationRepository) GetByID(id uint) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conversation, nil
}

func (r *ConversationRepository) ListByUserID(userID uint) ([]model.Conversation, error) {
	var list []model.Conversation
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return list, nil
}

// DeleteCascade removes the conversation with its messages, documents and
// chunks. It reports false when the conversation did not exist.
func (r *ConversationRepository) DeleteCascade(id uint) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var docIDs []uint
		if err := tx.Model(&model.Document{}).Where("conversation_id = ?", id).Pluck("id", &docIDs).Error; err != nil {
			return fmt.Errorf("list document ids by conversation failed: %w", err)
		}
		if len(docIDs) > 0 {
			if err := tx.Where("document_id IN ?", docIDs).Delete(&model.DocumentChunk{}).Error; err != nil {
				return fmt.Errorf("delete chunks by conversation failed: %w", err)
			}
			if err := tx.Where("id IN ?", docIDs).Delete(&model.Document{}).Error; err != nil {
				return fmt.Errorf("delete documents by conversation failed: %w", err)
			}
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages by conversation failed: %w", err)
		}
		res := tx.Delete(&model.Conversation{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete conversation failed: %w", res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
