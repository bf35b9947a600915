package worker

import (
	"context"
	"encoding/json"
	"log"

	"allocation-service/internal/broker"
	"allocation-service/internal/models"
	"allocation-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditWorker consumes the decision-event topic and writes one
// structured audit line per event, preserving publish order. It is the
// read side of the reporting channel; it never feeds back into the
// decision logic.
type AuditWorker struct {
	consumer *broker.Consumer
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting audit worker...")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping audit worker...")
	return w.consumer.Close()
}

func (w *AuditWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.BaseEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("Failed to unmarshal audit event", zap.Error(err))
		return err
	}

	w.logger.Info("Audit event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Time("timestamp", event.Timestamp),
		zap.String("key", string(msg.Key)),
		zap.ByteString("payload", msg.Value))

	return nil
}
