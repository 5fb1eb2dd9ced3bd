package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/briteai/briteai-backend/internal/model"
	"github.com/briteai/briteai-backend/internal/repository"
)

// UsagePersistWorker consumes usage events from the queue and writes usage
// records. Decode failures and write failures are nacked without requeue; a
// poisoned event should not block the queue.
type UsagePersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.UsageRepository
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUsagePersistWorker(conn *amqp.Connection, repo *repository.UsageRepository, queueName string, logger *zap.Logger) *UsagePersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsagePersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *UsagePersistWorker) Start(ctx context.Context) error {
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

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
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

				var event model.UsageEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					w.logger.Error("decode usage event failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				record := &model.UsageRecord{
					UserID:     event.UserID,
					DocumentID: event.DocumentID,
					Kind:       event.Kind,
					OccurredAt: event.OccurredAt,
				}
				if err := w.repo.Create(record); err != nil {
					w.logger.Error("persist usage record failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *UsagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
