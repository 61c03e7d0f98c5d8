// Package events defines the message shapes exchanged on the decision
// pipeline's event channels and the push delivery envelope used to
// trigger enrichment.
package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// AttrOwnerID is the message attribute carrying the string-encoded owner id.
// Consumers route on this attribute without decoding the payload.
const AttrOwnerID = "owner_id"

// DecisionMessage is the raw-channel payload. It carries only the audit id;
// the enricher re-joins everything else from storage.
type DecisionMessage struct {
	DecisionAuditID int64 `json:"decision_audit_id"`
}

// PushEnvelope is the push-delivery wrapper the enricher receives.
// The inner data field is a base64-encoded DecisionMessage.
type PushEnvelope struct {
	Message PushMessage `json:"message"`
}

// PushMessage is the inner message of a push delivery.
type PushMessage struct {
	Data       string            `json:"data"`
	Attributes map[string]string `json:"attributes,omitempty"`
	MessageID  string            `json:"messageId,omitempty"`
}

// DecodeData decodes the base64 payload into a DecisionMessage.
func (m PushMessage) DecodeData() (DecisionMessage, error) {
	var out DecisionMessage
	if m.Data == "" {
		return out, fmt.Errorf("push message has no data")
	}
	raw, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return out, fmt.Errorf("decode push data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal push data: %w", err)
	}
	return out, nil
}

// EncodePush wraps a DecisionMessage in a push envelope, the inverse of
// DecodeData. Used by tests and local tooling to simulate deliveries.
func EncodePush(msg DecisionMessage) (PushEnvelope, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return PushEnvelope{}, fmt.Errorf("marshal decision message: %w", err)
	}
	return PushEnvelope{
		Message: PushMessage{Data: base64.StdEncoding.EncodeToString(raw)},
	}, nil
}
