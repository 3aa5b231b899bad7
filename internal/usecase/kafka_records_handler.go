package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/pkg/logger"
)

// RecordBridgeHandler consumes monitoring records published to Kafka
// and lands them in a secondary sink, typically ClickHouse. It lets a
// deployment keep the hot path on Kafka while still building the
// queryable history.
type RecordBridgeHandler struct {
	topic string
	sink  drepo.RecordSink
	log   *logger.Logger
}

func NewRecordBridgeHandler(topic string, sink drepo.RecordSink, log *logger.Logger) *RecordBridgeHandler {
	return &RecordBridgeHandler{topic: topic, sink: sink, log: log}
}

// Topic returns the subscribed topic.
func (h *RecordBridgeHandler) Topic() string { return h.topic }

// Handle decodes one record message and writes it to the sink. Decode
// failures are terminal for the message; write failures are retryable.
func (h *RecordBridgeHandler) Handle(ctx context.Context, data []byte) error {
	var rec models.MonitoringRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		h.log.Error("bridge: undecodable record message", logger.Error(err))
		return nil
	}

	if err := h.sink.Write(ctx, &rec); err != nil {
		return fmt.Errorf("bridge write: %w", err)
	}

	h.log.Debug("bridge: record stored",
		logger.String("timestamp", rec.Timestamp.String()),
		logger.Int("instruments", len(rec.Results)))
	return nil
}
