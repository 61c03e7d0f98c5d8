// Package models defines the enrichment projection types.
package models

import (
	"time"

	"github.com/google/uuid"

	identitymodels "privacy-consent/internal/identity/models"
)

// RelationRow is one row of the audit-to-catalog join. Several rows share
// the same audit when the master identity carries several aliases; all other
// columns repeat per row.
type RelationRow struct {
	ConsentExpressionID          int
	ConsentExpressionName        *string
	ConsentExpressionDescription *string
	ConsentID                    int
	ConsentName                  string
	ConsentTypeID                int
	OwnerID                      *int
	ProductID                    *int
	DecisionID                   int
	DecisionAuditDate            time.Time
	LastDecisionDate             *time.Time
	UserID                       *string
	IDTypeID                     *int
	ChangeContext                *string
	UserConsentSourceID          *int
	IsAgreed                     bool
	PresentedLanguage            *string
	Title                        *string
	ShortText                    *string
	LongText                     *string
	MasterUserID                 string
	MasterIDTypeID               int
}

// EnrichedDecision is the transient projection published on the enriched
// channel. Maskable fields are pointers so the visibility policy can clear
// them to their absent representation.
type EnrichedDecision struct {
	UUID                uuid.UUID              `json:"uuid"`
	UserID              *string                `json:"user_id"`
	IDTypeID            *int                   `json:"id_type_id"`
	IDs                 []identitymodels.Alias `json:"ids"`
	IsAgreed            bool                   `json:"is_agreed"`
	ConsentExpressionID *int                   `json:"consent_expression_id"`
	ConsentID           *int                   `json:"consent_id"`
	ConsentTypeID       *int                   `json:"consent_type_id"`
	ChangeContext       *string                `json:"change_context"`
	OwnerID             *int                   `json:"owner_id"`
	ProductID           *int                   `json:"product_id"`
	DecisionID          *int                   `json:"decision_id"`
	LastDecisionDate    *time.Time             `json:"last_decision_date"`
	DecisionAuditDate   *time.Time             `json:"decision_audit_date"`
	UserConsentSourceID *int                   `json:"user_consent_source_id"`

	// Extended fields, retained per owner.
	ConsentName                  *string `json:"consent_name"`
	ConsentExpressionName        *string `json:"consent_expression_name"`
	ConsentExpressionDescription *string `json:"consent_expression_description"`
	Title                        *string `json:"title"`
	ShortText                    *string `json:"short_text"`
	LongText                     *string `json:"long_text"`
	PresentedLanguage            *string `json:"presented_language"`
}
