package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"botgpt/internal/model"
	"botgpt/internal/platform/rabbitmq"
)

type MessageLoader interface {
	ListByConversationID(conversationID uint) ([]model.Message, error)
	Last(conversationID uint) (*model.Message, error)
}

type HistoryWriter interface {
	SetMessages(ctx context.Context, conversationID uint, messages []model.Message) error
	Invalidate(ctx context.Context, conversationID uint) error
}

// HistoryWarmWorker consumes message events and refills the history cache
// once the event's message is the newest one in the log. Events for messages
// that already have successors are skipped; the later event warms the cache.
// An append that lands while the cache is being written undoes the write.
type HistoryWarmWorker struct {
	conn      *amqp.Connection
	messages  MessageLoader
	cache     HistoryWriter
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHistoryWarmWorker(conn *amqp.Connection, messages MessageLoader, cache HistoryWriter, queueName string) *HistoryWarmWorker {
	return &HistoryWarmWorker{
		conn:      conn,
		messages:  messages,
		cache:     cache,
		queueName: queueName,
	}
}

func (w *HistoryWarmWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("history warm worker: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *HistoryWarmWorker) handle(ctx context.Context, body []byte) error {
	var event rabbitmq.MessageEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode message event failed: %w", err)
	}
	if event.ConversationID == 0 {
		return fmt.Errorf("message event %d has no conversation", event.MessageID)
	}

	messages, err := w.messages.ListByConversationID(event.ConversationID)
	if err != nil {
		return err
	}
	if len(messages) == 0 || messages[len(messages)-1].ID != event.MessageID {
		return nil
	}
	newest := messages[len(messages)-1].ID
	if err := w.cache.SetMessages(ctx, event.ConversationID, messages); err != nil {
		return err
	}

	last, err := w.messages.Last(event.ConversationID)
	if err != nil || last == nil || last.ID != newest {
		if invErr := w.cache.Invalidate(ctx, event.ConversationID); invErr != nil {
			return fmt.Errorf("drop stale history for conversation %d failed: %w", event.ConversationID, invErr)
		}
	}
	return err
}

func (w *HistoryWarmWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
