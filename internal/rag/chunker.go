package rag

import (
	"errors"
	"fmt"
	"strings"
)

var ErrTooLarge = errors.New("text too large for chunking")

type Chunker struct {
	maxChars    int
	overlap     int
	sizeCeiling int
}

func NewChunker(cfg Config) *Chunker {
	cfg = cfg.withDefaults()
	return &Chunker{
		maxChars:    cfg.MaxChars,
		overlap:     cfg.Overlap,
		sizeCeiling: cfg.SizeCeiling,
	}
}

// Chunk splits text into overlapping windows of at most maxChars characters.
// Windows are trimmed and empty ones are dropped, so the returned order is the
// final chunk index order.
func (c *Chunker) Chunk(text string) ([]string, error) {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > c.sizeCeiling {
		return nil, fmt.Errorf("%w: %d characters exceeds limit of %d", ErrTooLarge, len(runes), c.sizeCeiling)
	}

	step := c.maxChars - c.overlap
	if step <= 0 {
		step = c.maxChars
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
