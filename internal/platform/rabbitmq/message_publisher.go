package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"botgpt/internal/model"
)

// MessageEvent is published after a message is appended to a conversation.
type MessageEvent struct {
	ConversationID uint      `json:"conversation_id"`
	MessageID      uint      `json:"message_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewMessageEvent(msg model.Message) MessageEvent {
	return MessageEvent{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Role:           msg.Role,
		CreatedAt:      msg.CreatedAt,
	}
}

type MessagePublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewMessagePublisher(conn *amqp.Connection, queueName string) *MessagePublisher {
	return &MessagePublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *MessagePublisher) PublishMessage(ctx context.Context, msg model.Message) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(NewMessageEvent(msg))
	if err != nil {
		return fmt.Errorf("marshal message event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		return fmt.Errorf("publish message event failed: %w", err)
	}
	return nil
}
