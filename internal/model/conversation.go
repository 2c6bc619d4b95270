package model

import (
	"strings"
	"time"
)

type Mode string

const (
	ModeOpen Mode = "open"
	ModeRAG  Mode = "rag"
)

// ParseMode maps a request value to a Mode. An empty value means open.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.TrimSpace(raw)) {
	case "", ModeOpen:
		return ModeOpen, true
	case ModeRAG:
		return ModeRAG, true
	default:
		return "", false
	}
}

// Conversation owns its messages and documents. Mode is set on creation and
// never updated afterwards.
type Conversation struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Title     *string    `gorm:"size:256" json:"title"`
	Mode      Mode       `gorm:"size:8;not null;default:open" json:"mode"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	Messages  []Message  `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Documents []Document `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}
