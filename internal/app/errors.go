package app

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("llm call failed")
	ErrIngestion  = errors.New("document ingestion failed")
)

var (
	ErrInvalidMode          = fmt.Errorf("%w: mode must be 'open' or 'rag'", ErrValidation)
	ErrMessageEmpty         = fmt.Errorf("%w: message content is empty", ErrValidation)
	ErrUserIDRequired       = fmt.Errorf("%w: user_id is required", ErrValidation)
	ErrDocumentEmpty        = fmt.Errorf("%w: no text found in document", ErrValidation)
	ErrDocumentTooLarge     = fmt.Errorf("%w: document too large", ErrValidation)
	ErrNothingToReply       = fmt.Errorf("%w: conversation is not awaiting a reply", ErrValidation)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrDocumentNotFound     = fmt.Errorf("document %w", ErrNotFound)
)
