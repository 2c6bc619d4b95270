package model

import "time"

type Document struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ConversationID uint            `gorm:"not null;index" json:"conversation_id"`
	Filename       string          `gorm:"size:256;not null" json:"filename"`
	CreatedAt      time.Time       `json:"created_at"`
	Chunks         []DocumentChunk `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

// DocumentChunk is one window of a document's extracted text. ChunkIndex is
// contiguous from 0 within a document.
type DocumentChunk struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocumentID uint   `gorm:"not null;index:idx_document_chunk,priority:1" json:"document_id"`
	ChunkIndex int    `gorm:"not null;index:idx_document_chunk,priority:2" json:"chunk_index"`
	Content    string `gorm:"type:text;not null" json:"content"`
}
