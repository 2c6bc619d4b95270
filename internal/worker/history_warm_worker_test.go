package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botgpt/internal/model"
	"botgpt/internal/platform/rabbitmq"
)

type fakeLoader struct {
	logs map[uint][]model.Message
	err  error
	// appended is returned by Last, standing in for a write after the list.
	appended *model.Message
}

func (f *fakeLoader) ListByConversationID(id uint) ([]model.Message, error) {
	return f.logs[id], f.err
}

func (f *fakeLoader) Last(id uint) (*model.Message, error) {
	if f.appended != nil {
		return f.appended, nil
	}
	log := f.logs[id]
	if len(log) == 0 {
		return nil, f.err
	}
	return &log[len(log)-1], f.err
}

type fakeWriter struct {
	written     map[uint][]model.Message
	invalidated []uint
}

func (f *fakeWriter) Invalidate(_ context.Context, id uint) error {
	delete(f.written, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

func (f *fakeWriter) SetMessages(_ context.Context, id uint, msgs []model.Message) error {
	if f.written == nil {
		f.written = map[uint][]model.Message{}
	}
	f.written[id] = msgs
	return nil
}

func eventBody(t *testing.T, msg model.Message) []byte {
	t.Helper()
	b, err := json.Marshal(rabbitmq.NewMessageEvent(msg))
	require.NoError(t, err)
	return b
}

func TestHandle_WarmsWhenEventIsNewest(t *testing.T) {
	log := []model.Message{
		{ID: 1, ConversationID: 3, Role: model.RoleUser, Content: "q"},
		{ID: 2, ConversationID: 3, Role: model.RoleAssistant, Content: "a"},
	}
	writer := &fakeWriter{}
	w := NewHistoryWarmWorker(nil, &fakeLoader{logs: map[uint][]model.Message{3: log}}, writer, "q")

	require.NoError(t, w.handle(context.Background(), eventBody(t, log[1])))
	assert.Equal(t, log, writer.written[3])
	assert.Empty(t, writer.invalidated)
}

func TestHandle_AppendDuringWarmDropsStaleLog(t *testing.T) {
	log := []model.Message{
		{ID: 1, ConversationID: 3, Role: model.RoleUser, Content: "q"},
		{ID: 2, ConversationID: 3, Role: model.RoleAssistant, Content: "a"},
	}
	loader := &fakeLoader{
		logs:     map[uint][]model.Message{3: log},
		appended: &model.Message{ID: 3, ConversationID: 3, Role: model.RoleUser, Content: "next"},
	}
	writer := &fakeWriter{}
	w := NewHistoryWarmWorker(nil, loader, writer, "q")

	require.NoError(t, w.handle(context.Background(), eventBody(t, log[1])))
	assert.NotContains(t, writer.written, uint(3))
	assert.Equal(t, []uint{3}, writer.invalidated)
}

func TestHandle_SkipsSupersededEvent(t *testing.T) {
	log := []model.Message{
		{ID: 1, ConversationID: 3, Role: model.RoleUser},
		{ID: 2, ConversationID: 3, Role: model.RoleAssistant},
	}
	writer := &fakeWriter{}
	w := NewHistoryWarmWorker(nil, &fakeLoader{logs: map[uint][]model.Message{3: log}}, writer, "q")

	require.NoError(t, w.handle(context.Background(), eventBody(t, log[0])))
	assert.Empty(t, writer.written)
}

func TestHandle_BadPayload(t *testing.T) {
	w := NewHistoryWarmWorker(nil, &fakeLoader{}, &fakeWriter{}, "q")

	assert.Error(t, w.handle(context.Background(), []byte("{not json")))
	assert.Error(t, w.handle(context.Background(), []byte(`{"message_id":4}`)))
}

func TestHandle_LoaderError(t *testing.T) {
	boom := errors.New("db down")
	w := NewHistoryWarmWorker(nil, &fakeLoader{err: boom}, &fakeWriter{}, "q")

	err := w.handle(context.Background(), eventBody(t, model.Message{ID: 1, ConversationID: 2}))
	assert.ErrorIs(t, err, boom)
}
