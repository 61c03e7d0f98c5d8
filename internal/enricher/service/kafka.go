package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"privacy-consent/internal/events"
	"privacy-consent/internal/platform/kafka/consumer"
)

// KafkaHandler adapts the enrichment service to the raw topic consumer.
// Returning an error skips the commit, so the broker redelivers the trigger.
type KafkaHandler struct {
	service *Service
	logger  *slog.Logger
}

// NewKafkaHandler creates a consumer handler driving the enrichment service.
func NewKafkaHandler(service *Service, logger *slog.Logger) *KafkaHandler {
	return &KafkaHandler{service: service, logger: logger}
}

func (h *KafkaHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var payload events.DecisionMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		// Malformed payloads are not retryable; commit and move on.
		h.logger.WarnContext(ctx, "dropping malformed decision message",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	return h.service.EnrichAndPublish(ctx, payload.DecisionAuditID)
}
