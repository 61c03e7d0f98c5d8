// Package models defines the decision domain types: inbound decision inputs,
// the current-state projection, and the append-only audit trail entries.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DecisionInput is one decision in a write batch, already detached from the
// caller identity carried alongside the batch.
type DecisionInput struct {
	ConsentExpressionID       int
	ParentConsentExpressionID *int
	IsAgreed                  bool
	UserConsentSourceID       int
	PresentedLanguage         string
	ChangeContext             *string
}

// DecisionRequest is the wire shape of one decision item. The caller identity
// is repeated per item; the first item's pair is authoritative for the batch.
type DecisionRequest struct {
	UserID                    string          `json:"user_id"`
	IDTypeID                  int             `json:"id_type_id"`
	ConsentExpressionID       int             `json:"consent_expression_id"`
	ParentConsentExpressionID *int            `json:"parent_consent_expression_id,omitempty"`
	IsAgreed                  bool            `json:"is_agreed"`
	UserConsentSourceID       int             `json:"user_consent_source_id"`
	PresentedLanguage         string          `json:"presented_language"`
	ChangeContext             json.RawMessage `json:"change_context,omitempty"`
}

// Input converts the wire item to a service input. The change context is
// stored as its raw JSON text.
func (r DecisionRequest) Input() DecisionInput {
	in := DecisionInput{
		ConsentExpressionID:       r.ConsentExpressionID,
		ParentConsentExpressionID: r.ParentConsentExpressionID,
		IsAgreed:                  r.IsAgreed,
		UserConsentSourceID:       r.UserConsentSourceID,
		PresentedLanguage:         r.PresentedLanguage,
	}
	if len(r.ChangeContext) > 0 {
		cc := string(r.ChangeContext)
		in.ChangeContext = &cc
	}
	return in
}

// ConsentOwner is the ownership resolution for one expression id.
type ConsentOwner struct {
	ConsentID int
	OwnerID   *int
}

// DecisionUpsert carries every field written into the current-state row.
type DecisionUpsert struct {
	MasterID                  uuid.UUID
	ConsentID                 int
	ConsentExpressionID       *int
	ParentConsentExpressionID *int
	IsAgreed                  bool
	UserConsentSourceID       *int
	PresentedLanguage         *string
	ChangeContext             *string
	IDTypeID                  *int
	OwnerID                   *int
	UserID                    string
}

// AuditEntry is one immutable audit trail row. The id is assigned by the
// store and is strictly increasing across the whole trail.
type AuditEntry struct {
	DecisionID                int
	ConsentExpressionID       *int
	ParentConsentExpressionID *int
	IsAgreed                  bool
	PresentedLanguage         *string
	UserConsentSourceID       *int
	ChangeContext             *string
	UserID                    string
	IDTypeID                  int
}

// HistoryEntry is one decision history row, audit trail joined back to the
// consent it was recorded against.
type HistoryEntry struct {
	ConsentID                 int       `json:"consent_id"`
	ConsentExpressionID       int       `json:"consent_expression_id"`
	ParentConsentExpressionID *int      `json:"parent_consent_expression_id,omitempty"`
	PresentedLanguage         string    `json:"presented_language"`
	ChangeContext             *string   `json:"change_context,omitempty"`
	IsAgreed                  bool      `json:"is_agreed"`
	Date                      time.Time `json:"date"`
	UserConsentSourceID       int       `json:"user_consent_source_id"`
}

// ShortQuery asks for the current agreement state of one (consent, user) pair.
type ShortQuery struct {
	ConsentID int    `json:"consent_id"`
	UserID    string `json:"user_id"`
	IDTypeID  int    `json:"id_type_id"`
}

// ShortDecision is the compact answer to a ShortQuery. IsAgreed is nil when
// the user has never decided and the consent type has no default opt-in.
type ShortDecision struct {
	ConsentID int    `json:"consent_id"`
	UserID    string `json:"user_id"`
	IDTypeID  int    `json:"id_type_id"`
	IsAgreed  *bool  `json:"is_agreed"`
}

// RetractRequest identifies the current decision to retract. Audit history
// is never touched.
type RetractRequest struct {
	UserID              string `json:"user_id"`
	IDTypeID            int    `json:"id_type_id"`
	ConsentID           int    `json:"consent_id"`
	UserConsentSourceID int    `json:"user_consent_source_id"`
}

// UpdateLastRequest flips the current agreement flag in place without an
// audit row. Administrative correction flow only.
type UpdateLastRequest struct {
	UserID              string `json:"user_id"`
	IDTypeID            int    `json:"id_type_id"`
	ConsentID           int    `json:"consent_id"`
	UserConsentSourceID int    `json:"user_consent_source_id"`
	Value               bool   `json:"value"`
}

// LastSeenRequest marks decision rows as presented to the user.
type LastSeenRequest struct {
	DecisionIDs []int `json:"decision_ids"`
}
