package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"privacy-consent/internal/platform/kafka/producer"
)

// MessageProducer is the transport the publishers write through.
// *producer.Producer satisfies it; tests substitute an in-memory recorder.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// DecisionPublisher publishes raw decision messages.
// Publishing is synchronous so callers observe delivery failures in order.
type DecisionPublisher struct {
	producer MessageProducer
	topic    string
}

// NewDecisionPublisher creates a publisher bound to the raw topic.
func NewDecisionPublisher(p MessageProducer, topic string) *DecisionPublisher {
	return &DecisionPublisher{producer: p, topic: topic}
}

// Publish sends {decision_audit_id} keyed by audit id. When the owner is
// known it is attached as the owner_id attribute for consumer-side routing.
func (p *DecisionPublisher) Publish(ctx context.Context, auditID int64, ownerID *int) error {
	value, err := json.Marshal(DecisionMessage{DecisionAuditID: auditID})
	if err != nil {
		return fmt.Errorf("marshal decision message: %w", err)
	}

	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(auditID, 10)),
		Value: value,
	}
	if ownerID != nil {
		msg.Headers = map[string]string{AttrOwnerID: strconv.Itoa(*ownerID)}
	}
	return p.producer.Produce(ctx, msg)
}

// EnrichedPublisher publishes fully enriched, policy-filtered decisions.
type EnrichedPublisher struct {
	producer MessageProducer
	topic    string
}

// NewEnrichedPublisher creates a publisher bound to the enriched topic.
func NewEnrichedPublisher(p MessageProducer, topic string) *EnrichedPublisher {
	return &EnrichedPublisher{producer: p, topic: topic}
}

// Publish serializes the enriched payload and tags it with the owner
// attribute when present. The key is the stable decision id so log-compacted
// consumers keep the latest state per decision.
func (p *EnrichedPublisher) Publish(ctx context.Context, payload any, decisionID int, ownerID *int) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal enriched decision: %w", err)
	}

	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(strconv.Itoa(decisionID)),
		Value: value,
	}
	if ownerID != nil {
		msg.Headers = map[string]string{AttrOwnerID: strconv.Itoa(*ownerID)}
	}
	return p.producer.Produce(ctx, msg)
}
