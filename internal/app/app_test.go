package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"botgpt/internal/ai"
	"botgpt/internal/model"
	platformsqlite "botgpt/internal/platform/sqlite"
	"botgpt/internal/rag"
	"botgpt/internal/repository"
)

// fakeCaller answers "reply N" for the Nth call unless err is set.
type fakeCaller struct {
	mu    sync.Mutex
	err   error
	calls [][]ai.ChatMessage
}

func (f *fakeCaller) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("reply %d", len(f.calls)), nil
}

func (f *fakeCaller) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeCaller) last() []ai.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type fixture struct {
	db            *gorm.DB
	caller        *fakeCaller
	conversations *ConversationService
	documents     *DocumentService
}

func newFixture(t *testing.T, cfg rag.Config, opts ...ConversationOption) *fixture {
	t.Helper()
	db, err := platformsqlite.New(context.Background(), "file::memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	assembler := rag.NewAssembler(messageRepo, rag.NewRetriever(chunkRepo, cfg), cfg)
	caller := &fakeCaller{}

	return &fixture{
		db:            db,
		caller:        caller,
		conversations: NewConversationService(userRepo, conversationRepo, messageRepo, assembler, caller, opts...),
		documents:     NewDocumentService(conversationRepo, documentRepo, cfg),
	}
}

func (f *fixture) create(t *testing.T, mode model.Mode, first string) *ConversationDetail {
	t.Helper()
	detail, err := f.conversations.Create(context.Background(), CreateConversationInput{
		UserID:       1,
		FirstMessage: first,
		Mode:         string(mode),
	})
	require.NoError(t, err)
	return detail
}

var errBoom = errors.New("boom")
