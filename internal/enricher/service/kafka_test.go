package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-consent/internal/events"
	"privacy-consent/internal/platform/kafka/consumer"
)

func TestKafkaHandler_EnrichesOnDecisionMessage(t *testing.T) {
	f := newFixture(t)
	auditID := f.saveOne(t, 301)

	value, err := json.Marshal(events.DecisionMessage{DecisionAuditID: auditID})
	require.NoError(t, err)

	h := NewKafkaHandler(f.service, slog.Default())
	require.NoError(t, h.Handle(context.Background(), &consumer.Message{
		Topic: "decisions.raw",
		Value: value,
	}))

	assert.Len(t, f.enriched.messages, 1)
}

func TestKafkaHandler_DropsMalformedPayload(t *testing.T) {
	f := newFixture(t)

	h := NewKafkaHandler(f.service, slog.Default())
	// Malformed payloads commit without enriching; redelivery cannot fix them.
	require.NoError(t, h.Handle(context.Background(), &consumer.Message{
		Topic: "decisions.raw",
		Value: []byte("not json"),
	}))

	assert.Empty(t, f.enriched.messages)
}
