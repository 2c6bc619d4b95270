package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"botgpt/internal/model"
	"botgpt/internal/pkg/pdfextract"
	"botgpt/internal/rag"
	"botgpt/internal/repository"
)

type DocumentService struct {
	conversationRepo *repository.ConversationRepository
	documentRepo     *repository.DocumentRepository
	chunker          *rag.Chunker
	sizeCeiling      int
}

func NewDocumentService(
	conversationRepo *repository.ConversationRepository,
	documentRepo *repository.DocumentRepository,
	cfg rag.Config,
) *DocumentService {
	if cfg.SizeCeiling <= 0 {
		cfg.SizeCeiling = rag.DefaultSizeCeiling
	}
	return &DocumentService{
		conversationRepo: conversationRepo,
		documentRepo:     documentRepo,
		chunker:          rag.NewChunker(cfg),
		sizeCeiling:      cfg.SizeCeiling,
	}
}

type IngestInput struct {
	ConversationID uint
	Filename       string
	Text           string
}

type IngestResult struct {
	DocumentID uint `json:"document_id"`
	NumChunks  int  `json:"num_chunks"`
}

type DocumentSummary struct {
	ID        uint      `json:"id"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	NumChunks int64     `json:"num_chunks"`
}

// IngestPDF extracts the text of a PDF and ingests it like plain text.
func (s *DocumentService) IngestPDF(conversationID uint, filename string, r io.Reader) (*IngestResult, error) {
	if _, err := s.mustConversation(conversationID); err != nil {
		return nil, err
	}
	text, err := pdfextract.ExtractText(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	return s.Ingest(IngestInput{
		ConversationID: conversationID,
		Filename:       filename,
		Text:           text,
	})
}

// Ingest chunks the text and stores the document with all of its chunks in
// one transaction. Nothing is written when any step fails.
func (s *DocumentService) Ingest(input IngestInput) (*IngestResult, error) {
	if _, err := s.mustConversation(input.ConversationID); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrDocumentEmpty
	}
	if n := utf8.RuneCountInString(text); n > s.sizeCeiling {
		return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrDocumentTooLarge, n, s.sizeCeiling)
	}

	chunks, err := s.chunker.Chunk(text)
	if err != nil {
		if errors.Is(err, rag.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %w", ErrDocumentTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	if len(chunks) == 0 {
		return nil, ErrDocumentEmpty
	}

	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		filename = "untitled"
	}
	doc := &model.Document{
		ConversationID: input.ConversationID,
		Filename:       filename,
	}
	if err := s.documentRepo.CreateWithChunks(doc, chunks); err != nil {
		if errors.Is(err, repository.ErrConversationMissing) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	return &IngestResult{DocumentID: doc.ID, NumChunks: len(chunks)}, nil
}

func (s *DocumentService) List(conversationID uint) ([]DocumentSummary, error) {
	if _, err := s.mustConversation(conversationID); err != nil {
		return nil, err
	}
	docs, err := s.documentRepo.ListByConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		n, err := s.documentRepo.CountChunks(d.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, DocumentSummary{
			ID:        d.ID,
			Filename:  d.Filename,
			CreatedAt: d.CreatedAt,
			NumChunks: n,
		})
	}
	return out, nil
}

func (s *DocumentService) Delete(conversationID, documentID uint) error {
	if _, err := s.mustConversation(conversationID); err != nil {
		return err
	}
	deleted, err := s.documentRepo.DeleteCascade(documentID, conversationID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *DocumentService) mustConversation(conversationID uint) (*model.Conversation, error) {
	if conversationID == 0 {
		return nil, ErrConversationNotFound
	}
	conversation, err := s.conversationRepo.GetByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}
