package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stockwatch/internal/config"
	"stockwatch/internal/logger"
	"stockwatch/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Processor interface {
	Process(ctx context.Context, event processors.Event) error
}

type Worker struct {
	logger     *logger.Logger
	reader     MessageReader
	processor  Processor
	retryDelay time.Duration
}

func NewReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaPlanTopic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
}

func New(reader MessageReader, processor Processor, logger *logger.Logger) *Worker {
	return &Worker{
		logger:     logger,
		reader:     reader,
		processor:  processor,
		retryDelay: 5 * time.Second,
	}
}

// Start consumes until ctx is cancelled. A message is committed once it has
// been processed or found unprocessable; transient failures are retried
// before moving on, so delivery is at least once.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for events...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		if !w.handle(ctx, message) {
			return nil
		}

		if err := w.reader.CommitMessages(ctx, message); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}
	}
}

// handle processes one message, retrying transient failures until it
// succeeds or ctx ends. It reports false when the worker should stop.
func (w *Worker) handle(ctx context.Context, message kafka.Message) bool {
	var event processors.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		w.logger.Error("Failed to parse event at offset %d: %v", message.Offset, err)
		return true
	}

	for {
		err := w.processor.Process(ctx, event)
		if err == nil {
			w.logger.Debug("Event processed successfully")
			return true
		}
		if errors.Is(err, processors.ErrInvalidEvent) {
			w.logger.Error("Dropping event at offset %d: %v", message.Offset, err)
			return true
		}
		w.logger.Error("Failed to process %s for %s: %v", event.Type, event.ShopDomain, err)
		if !w.sleep(ctx) {
			return false
		}
	}
}

func (w *Worker) sleep(ctx context.Context) bool {
	t := time.NewTimer(w.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
