package store

import (
	"context"

	"github.com/google/uuid"

	decisionstore "privacy-consent/internal/decision/store"
	"privacy-consent/internal/enricher/models"
	identitymodels "privacy-consent/internal/identity/models"
)

// AliasSource lists the external pairs bound to a master identity.
type AliasSource interface {
	Aliases(ctx context.Context, masterID uuid.UUID) ([]identitymodels.Alias, error)
}

// InMemoryStore computes the enrichment join over the in-memory decision and
// identity stores. Test use only.
type InMemoryStore struct {
	decisions  *decisionstore.InMemoryStore
	identities AliasSource
}

// NewMemory constructs an in-memory enrichment store over the given stores.
func NewMemory(decisions *decisionstore.InMemoryStore, identities AliasSource) *InMemoryStore {
	return &InMemoryStore{decisions: decisions, identities: identities}
}

func (s *InMemoryStore) ConsentRelations(ctx context.Context, decisionAuditID int64) ([]models.RelationRow, error) {
	audit, ok := s.decisions.Audit(decisionAuditID)
	if !ok {
		return nil, nil
	}
	decision, ok := s.decisions.Decision(audit.DecisionID)
	if !ok {
		// The decision was retracted; only the audit survives, so there is
		// nothing to enrich.
		return nil, nil
	}
	consent, ok := s.decisions.Consent(decision.ConsentID)
	if !ok {
		return nil, nil
	}
	if audit.ConsentExpressionID == nil {
		return nil, nil
	}
	expression, ok := s.decisions.Expression(*audit.ConsentExpressionID)
	if !ok {
		return nil, nil
	}

	aliases, err := s.identities.Aliases(ctx, decision.MasterID)
	if err != nil {
		return nil, err
	}
	if len(aliases) == 0 {
		return nil, nil
	}

	base := models.RelationRow{
		ConsentExpressionID:          expression.ID,
		ConsentExpressionName:        strPtr(expression.Name),
		ConsentExpressionDescription: strPtr(expression.Description),
		ConsentID:                    consent.ID,
		ConsentName:                  consent.Name,
		ConsentTypeID:                consent.ConsentTypeID,
		OwnerID:                      consent.OwnerID,
		ProductID:                    consent.ProductID,
		DecisionID:                   audit.DecisionID,
		DecisionAuditDate:            audit.Date,
		LastDecisionDate:             &decision.LastDecisionDate,
		UserID:                       strPtr(audit.UserID),
		IDTypeID:                     intPtr(audit.IDTypeID),
		ChangeContext:                audit.ChangeContext,
		UserConsentSourceID:          audit.UserConsentSourceID,
		IsAgreed:                     audit.IsAgreed,
	}

	language := ""
	if audit.PresentedLanguage != nil {
		language = *audit.PresentedLanguage
	}
	if text, ok := s.decisions.ExpressionText(expression.ID, language); ok {
		base.PresentedLanguage = strPtr(language)
		base.Title = strPtr(text.Title)
		base.ShortText = strPtr(text.ShortText)
		base.LongText = strPtr(text.LongText)
	} else {
		empty := ""
		base.PresentedLanguage = &empty
		base.Title = strPtr("")
		base.ShortText = strPtr("")
		base.LongText = strPtr("")
	}

	rows := make([]models.RelationRow, 0, len(aliases))
	for _, alias := range aliases {
		row := base
		row.MasterUserID = alias.UserID
		row.MasterIDTypeID = alias.IDTypeID
		rows = append(rows, row)
	}
	return rows, nil
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
