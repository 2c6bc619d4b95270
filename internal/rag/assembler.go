package rag

import (
	"errors"
	"fmt"
	"strings"

	"botgpt/internal/ai"
	"botgpt/internal/model"
)

const (
	SystemInstruction = "You are a helpful assistant. Use the provided context to answer " +
		"the user's question. If the context is not enough, say so clearly."
	NoContextMarker = "No relevant context found."
)

var ErrUnknownMode = errors.New("unknown conversation mode")

// HistorySource returns the most recent messages of a conversation in
// creation order, at most limit of them.
type HistorySource interface {
	ListRecentByConversationID(conversationID uint, limit int) ([]model.Message, error)
}

type Assembler struct {
	history       HistorySource
	retriever     *Retriever
	historyWindow int
	topK          int
}

func NewAssembler(history HistorySource, retriever *Retriever, cfg Config) *Assembler {
	cfg = cfg.withDefaults()
	return &Assembler{
		history:       history,
		retriever:     retriever,
		historyWindow: cfg.HistoryWindow,
		topK:          cfg.TopK,
	}
}

// Build produces the message sequence for the model. The user message for
// question must already be appended to the conversation log.
func (a *Assembler) Build(conversationID uint, mode model.Mode, question string) ([]ai.ChatMessage, error) {
	switch mode {
	case model.ModeOpen:
		recent, err := a.history.ListRecentByConversationID(conversationID, a.historyWindow)
		if err != nil {
			return nil, fmt.Errorf("load history failed: %w", err)
		}
		return SlidingWindow(recent, a.historyWindow), nil
	case model.ModeRAG:
		chunks, err := a.retriever.Retrieve(conversationID, question, a.topK)
		if err != nil {
			return nil, err
		}
		return RAGPrompt(chunks, question), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// SlidingWindow keeps the last n messages, preserving role, content and order.
func SlidingWindow(messages []model.Message, n int) []ai.ChatMessage {
	if n > 0 && len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	out := make([]ai.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// RAGPrompt always yields system, context and question messages, in that order.
func RAGPrompt(chunks []string, question string) []ai.ChatMessage {
	contextText := NoContextMarker
	if len(chunks) > 0 {
		contextText = strings.Join(chunks, "\n\n")
	}
	return []ai.ChatMessage{
		{Role: model.RoleSystem, Content: SystemInstruction},
		{Role: model.RoleAssistant, Content: contextText},
		{Role: model.RoleUser, Content: "QUESTION:\n" + question},
	}
}
