package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"botgpt/internal/ai"
	"botgpt/internal/model"
	"botgpt/internal/rag"
	"botgpt/internal/repository"
)

const emptyModelReply = "The model returned an empty response."

// ModelCaller turns a role-tagged message sequence into the assistant's text.
type ModelCaller interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

type HistoryCache interface {
	GetMessages(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetMessages(ctx context.Context, conversationID uint, messages []model.Message) error
	Invalidate(ctx context.Context, conversationID uint) error
	Forget(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg model.Message) error
}

type ConversationService struct {
	userRepo         *repository.UserRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	assembler        *rag.Assembler
	llm              ModelCaller
	historyCache     HistoryCache
	publisher        MessagePublisher
	locks            *keyedMutex
}

type ConversationOption func(*ConversationService)

func WithHistoryCache(cache HistoryCache) ConversationOption {
	return func(s *ConversationService) { s.historyCache = cache }
}

func WithMessagePublisher(publisher MessagePublisher) ConversationOption {
	return func(s *ConversationService) { s.publisher = publisher }
}

func NewConversationService(
	userRepo *repository.UserRepository,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	assembler *rag.Assembler,
	llm ModelCaller,
	opts ...ConversationOption,
) *ConversationService {
	s := &ConversationService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		assembler:        assembler,
		llm:              llm,
		locks:            newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateConversationInput struct {
	UserID       uint
	FirstMessage string
	Mode         string
	Title        string
}

type ConversationSummary struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Title     *string    `json:"title"`
	Mode      model.Mode `json:"mode"`
}

// ConversationDetail is a conversation with its full ordered log.
// AwaitingReply is set when the last message has no assistant answer yet.
type ConversationDetail struct {
	ID            uint            `json:"id"`
	UserID        uint            `json:"user_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Title         *string         `json:"title"`
	Mode          model.Mode      `json:"mode"`
	Messages      []model.Message `json:"messages"`
	AwaitingReply bool            `json:"awaiting_reply"`
}

type Reply struct {
	ConversationID   uint           `json:"conversation_id"`
	UserMessage      *model.Message `json:"user_message,omitempty"`
	AssistantMessage *model.Message `json:"assistant_message,omitempty"`
}

// Create stores the conversation with its first user message and answers it
// with the conversation's mode. If the model call fails the conversation and
// the user message are kept, and both the detail and the error are returned.
func (s *ConversationService) Create(ctx context.Context, input CreateConversationInput) (*ConversationDetail, error) {
	if input.UserID == 0 {
		return nil, ErrUserIDRequired
	}
	content := input.FirstMessage
	if strings.TrimSpace(content) == "" {
		return nil, ErrMessageEmpty
	}
	mode, ok := model.ParseMode(input.Mode)
	if !ok {
		return nil, ErrInvalidMode
	}

	user, err := s.userRepo.GetOrCreate(input.UserID)
	if err != nil {
		return nil, err
	}

	conversation := &model.Conversation{UserID: user.ID, Mode: mode}
	if title := strings.TrimSpace(input.Title); title != "" {
		conversation.Title = &title
	}
	first := &model.Message{Role: model.RoleUser, Content: content}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.conversationRepo.CreateWithMessage(conversation, first); err != nil {
		return nil, err
	}
	s.afterAppend(ctx, *first)

	unlock, replyErr := s.locks.Lock(ctx, conversation.ID)
	if replyErr == nil {
		_, replyErr = s.reply(ctx, conversation, content)
		unlock()
	}

	detail, err := s.detail(ctx, conversation)
	if err != nil {
		return nil, err
	}
	return detail, replyErr
}

func (s *ConversationService) List(userID uint) ([]ConversationSummary, error) {
	if userID == 0 {
		return nil, ErrUserIDRequired
	}
	conversations, err := s.conversationRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, ConversationSummary{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			Title:     c.Title,
			Mode:      c.Mode,
		})
	}
	return out, nil
}

func (s *ConversationService) Get(ctx context.Context, conversationID uint) (*ConversationDetail, error) {
	conversation, err := s.mustConversation(conversationID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, conversation)
}

// Delete removes the conversation together with its messages, documents and chunks.
func (s *ConversationService) Delete(ctx context.Context, conversationID uint) error {
	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()

	deleted, err := s.conversationRepo.DeleteCascade(conversationID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrConversationNotFound
	}
	if s.historyCache != nil {
		if err := s.historyCache.Forget(ctx, conversationID); err != nil {
			log.Printf("forget history cache for conversation %d failed: %v", conversationID, err)
		}
	}
	return nil
}

// SendMessage appends a user message and answers it. Submissions on the same
// conversation are serialized. When the model call fails the user message
// stays in the log and the returned Reply carries it without an answer.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID uint, content string) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrMessageEmpty
	}
	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conversation, err := s.mustConversation(conversationID)
	if err != nil {
		return nil, err
	}

	userMessage := &model.Message{
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        content,
	}
	// A caller that gave up while queued must not leave a message behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.messageRepo.Create(userMessage); err != nil {
		return nil, err
	}
	s.afterAppend(ctx, *userMessage)

	result := &Reply{ConversationID: conversationID, UserMessage: userMessage}
	assistant, err := s.reply(ctx, conversation, content)
	if err != nil {
		return result, err
	}
	result.AssistantMessage = assistant
	return result, nil
}

// ResumeReply answers the trailing user message left by a failed model call
// without appending it again.
func (s *ConversationService) ResumeReply(ctx context.Context, conversationID uint) (*Reply, error) {
	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conversation, err := s.mustConversation(conversationID)
	if err != nil {
		return nil, err
	}

	last, err := s.messageRepo.Last(conversationID)
	if err != nil {
		return nil, err
	}
	if last == nil || last.Role != model.RoleUser {
		return nil, ErrNothingToReply
	}

	result := &Reply{ConversationID: conversationID, UserMessage: last}
	assistant, err := s.reply(ctx, conversation, last.Content)
	if err != nil {
		return result, err
	}
	result.AssistantMessage = assistant
	return result, nil
}

// reply assembles the prompt for question, calls the model and appends the
// answer. The caller must hold the conversation lock.
func (s *ConversationService) reply(ctx context.Context, conversation *model.Conversation, question string) (*model.Message, error) {
	prompt, err := s.assembler.Build(conversation.ID, conversation.Mode, question)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		log.Printf("llm call for conversation %d failed: %v", conversation.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = emptyModelReply
	}

	assistant := &model.Message{
		ConversationID: conversation.ID,
		Role:           model.RoleAssistant,
		Content:        text,
	}
	if err := s.messageRepo.Create(assistant); err != nil {
		return nil, err
	}
	s.afterAppend(ctx, *assistant)
	return assistant, nil
}

func (s *ConversationService) detail(ctx context.Context, conversation *model.Conversation) (*ConversationDetail, error) {
	messages, err := s.loadMessages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	awaiting := len(messages) > 0 && messages[len(messages)-1].Role == model.RoleUser
	return &ConversationDetail{
		ID:            conversation.ID,
		UserID:        conversation.UserID,
		CreatedAt:     conversation.CreatedAt,
		Title:         conversation.Title,
		Mode:          conversation.Mode,
		Messages:      messages,
		AwaitingReply: awaiting,
	}, nil
}

// loadMessages serves the full log from the history cache when possible.
// Prompt assembly never goes through here.
func (s *ConversationService) loadMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	if s.historyCache != nil {
		cached, hit, err := s.historyCache.GetMessages(ctx, conversationID)
		if err != nil {
			log.Printf("read history cache for conversation %d failed: %v", conversationID, err)
		} else if hit {
			return cached, nil
		}
	}

	messages, err := s.messageRepo.ListByConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, conversationID); err == nil && !dirty {
			if err := s.historyCache.SetMessages(ctx, conversationID, messages); err != nil {
				log.Printf("fill history cache for conversation %d failed: %v", conversationID, err)
			}
		}
	}
	return messages, nil
}

// afterAppend invalidates cached history and emits a message event. Both are
// best effort: the database is the source of truth.
func (s *ConversationService) afterAppend(ctx context.Context, msg model.Message) {
	if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, msg.ConversationID); err != nil {
			log.Printf("invalidate history cache for conversation %d failed: %v", msg.ConversationID, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, msg); err != nil {
			log.Printf("publish message %d event failed: %v", msg.ID, err)
		}
	}
}

func (s *ConversationService) mustConversation(conversationID uint) (*model.Conversation, error) {
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
