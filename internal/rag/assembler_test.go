package rag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botgpt/internal/ai"
	"botgpt/internal/model"
)

type fakeHistory struct {
	messages []model.Message
	limits   []int
}

func (f *fakeHistory) ListRecentByConversationID(_ uint, limit int) ([]model.Message, error) {
	f.limits = append(f.limits, limit)
	if limit > 0 && len(f.messages) > limit {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func buildMessages(n int) []model.Message {
	out := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		out = append(out, model.Message{ID: uint(i + 1), Role: role, Content: fmt.Sprintf("message %d", i)})
	}
	return out
}

func TestSlidingWindow_KeepsLastTen(t *testing.T) {
	window := SlidingWindow(buildMessages(15), 10)

	require.Len(t, window, 10)
	for i, m := range window {
		assert.Equal(t, fmt.Sprintf("message %d", i+5), m.Content)
	}
	assert.Equal(t, model.RoleAssistant, window[0].Role)
	assert.Equal(t, model.RoleUser, window[9].Role)
}

func TestSlidingWindow_ShortLog(t *testing.T) {
	window := SlidingWindow(buildMessages(3), 10)
	assert.Equal(t, []ai.ChatMessage{
		{Role: model.RoleUser, Content: "message 0"},
		{Role: model.RoleAssistant, Content: "message 1"},
		{Role: model.RoleUser, Content: "message 2"},
	}, window)
}

func TestAssembler_OpenModeUsesHistoryOnly(t *testing.T) {
	history := &fakeHistory{messages: buildMessages(15)}
	source := &fakeChunkSource{pools: map[uint][]string{1: {"message context"}}}
	a := NewAssembler(history, NewRetriever(source, DefaultConfig()), DefaultConfig())

	got, err := a.Build(1, model.ModeOpen, "message 14")
	require.NoError(t, err)

	require.Len(t, got, 10)
	assert.Equal(t, "message 5", got[0].Content)
	assert.Equal(t, "message 14", got[9].Content)
	for _, m := range got {
		assert.NotEqual(t, model.RoleSystem, m.Role)
	}
	assert.Equal(t, []int{10}, history.limits)
	assert.Zero(t, source.calls)
}

func TestAssembler_RAGModeWithoutChunks(t *testing.T) {
	history := &fakeHistory{messages: buildMessages(4)}
	a := NewAssembler(history, NewRetriever(&fakeChunkSource{}, DefaultConfig()), DefaultConfig())

	got, err := a.Build(1, model.ModeRAG, "What is in the file?")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, model.RoleSystem, got[0].Role)
	assert.Equal(t, SystemInstruction, got[0].Content)
	assert.Equal(t, model.RoleAssistant, got[1].Role)
	assert.Equal(t, "No relevant context found.", got[1].Content)
	assert.Equal(t, model.RoleUser, got[2].Role)
	assert.Equal(t, "QUESTION:\nWhat is in the file?", got[2].Content)
	assert.Empty(t, history.limits)
}

func TestAssembler_RAGModeJoinsTopChunks(t *testing.T) {
	source := &fakeChunkSource{pools: map[uint][]string{
		9: {
			"invoices are due monthly",
			"the cat sat",
			"invoices list the total due",
			"due dates for invoices are strict",
			"invoices",
		},
	}}
	a := NewAssembler(&fakeHistory{}, NewRetriever(source, DefaultConfig()), DefaultConfig())

	got, err := a.Build(9, model.ModeRAG, "when are invoices due")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t,
		"invoices are due monthly\n\ndue dates for invoices are strict\n\ninvoices list the total due",
		got[1].Content,
	)
}

func TestAssembler_UnknownMode(t *testing.T) {
	a := NewAssembler(&fakeHistory{}, NewRetriever(&fakeChunkSource{}, DefaultConfig()), DefaultConfig())

	_, err := a.Build(1, model.Mode("hybrid"), "q")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
