package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/briteai/briteai-backend/internal/model"
)

// UsagePublisher pushes usage events onto a durable queue; a worker persists
// them for quota accounting.
type UsagePublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewUsagePublisher(conn *amqp.Connection, queueName string) *UsagePublisher {
	return &UsagePublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *UsagePublisher) Publish(ctx context.Context, event model.UsageEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal usage event failed: %w", err)
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
		},
	); err != nil {
		return fmt.Errorf("publish usage event failed: %w", err)
	}
	return nil
}
