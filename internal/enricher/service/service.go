// Package service implements the enrichment worker: it re-joins the full
// decision context for an audit id, applies the field-visibility policy, and
// republishes the masked result.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"privacy-consent/internal/enricher/metrics"
	"privacy-consent/internal/enricher/models"
	"privacy-consent/internal/enricher/policy"
	identitymodels "privacy-consent/internal/identity/models"
	"privacy-consent/internal/sentinel"
	dErrors "privacy-consent/pkg/domain-errors"
)

// Store reads the enrichment join.
type Store interface {
	ConsentRelations(ctx context.Context, decisionAuditID int64) ([]models.RelationRow, error)
}

// Publisher sends enriched decisions on the second channel.
type Publisher interface {
	Publish(ctx context.Context, payload any, decisionID int, ownerID *int) error
}

type Option func(*Service)

// Service produces masked enriched decisions from audit ids.
type Service struct {
	store     Store
	policy    *policy.Policy
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store Store, pol *policy.Policy, publisher Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		policy:    pol,
		publisher: publisher,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Enrich builds the masked enriched projection for one audit id. Returns
// sentinel.ErrNotFound when the audit has no enrichable context.
//
// The record identifier is minted fresh on every call: redelivered triggers
// yield two messages with identical business content but different uuids, so
// consumers must dedupe on decision_id.
func (s *Service) Enrich(ctx context.Context, decisionAuditID int64) (*models.EnrichedDecision, error) {
	rows, err := s.store.ConsentRelations(ctx, decisionAuditID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consent relations")
	}
	if len(rows) == 0 {
		return nil, sentinel.ErrNotFound
	}

	record := buildEnriched(rows)
	fields := s.policy.EffectiveFieldSet(record.OwnerID)
	return s.policy.Apply(record, fields), nil
}

// EnrichAndPublish runs one full enrichment round. An unknown audit id is a
// benign no-op: the trigger is acknowledged and nothing is published.
func (s *Service) EnrichAndPublish(ctx context.Context, decisionAuditID int64) error {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.TriggersReceived.Inc()
	}

	record, err := s.Enrich(ctx, decisionAuditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "no consent relations found for decision audit",
				"decision_audit_id", decisionAuditID,
			)
			if s.metrics != nil {
				s.metrics.NotFound.Inc()
			}
			return nil
		}
		return err
	}

	decisionID := 0
	if record.DecisionID != nil {
		decisionID = *record.DecisionID
	}
	if err := s.publisher.Publish(ctx, record, decisionID, record.OwnerID); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailures.Inc()
		}
		return dErrors.Wrap(err, dErrors.CodePublishFailed, "failed to publish enriched decision")
	}

	s.logger.InfoContext(ctx, "published enriched decision",
		"decision_audit_id", decisionAuditID,
		"decision_id", decisionID,
	)
	if s.metrics != nil {
		s.metrics.Enriched.Inc()
		s.metrics.EnrichmentLatency.Observe(time.Since(start).Seconds())
	}
	return nil
}

// buildEnriched folds the join rows into one projection. All rows repeat the
// same decision context; only the master alias columns vary.
func buildEnriched(rows []models.RelationRow) *models.EnrichedDecision {
	first := rows[0]

	ids := make([]identitymodels.Alias, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, identitymodels.Alias{UserID: row.MasterUserID, IDTypeID: row.MasterIDTypeID})
	}

	exprID := first.ConsentExpressionID
	consentID := first.ConsentID
	consentTypeID := first.ConsentTypeID
	decisionID := first.DecisionID
	auditDate := first.DecisionAuditDate

	return &models.EnrichedDecision{
		UUID:                         uuid.New(),
		UserID:                       first.UserID,
		IDTypeID:                     first.IDTypeID,
		IDs:                          ids,
		IsAgreed:                     first.IsAgreed,
		ConsentExpressionID:          &exprID,
		ConsentID:                    &consentID,
		ConsentTypeID:                &consentTypeID,
		ChangeContext:                first.ChangeContext,
		OwnerID:                      first.OwnerID,
		ProductID:                    first.ProductID,
		DecisionID:                   &decisionID,
		LastDecisionDate:             first.LastDecisionDate,
		DecisionAuditDate:            &auditDate,
		UserConsentSourceID:          first.UserConsentSourceID,
		ConsentName:                  strPtr(first.ConsentName),
		ConsentExpressionName:        first.ConsentExpressionName,
		ConsentExpressionDescription: first.ConsentExpressionDescription,
		Title:                        first.Title,
		ShortText:                    first.ShortText,
		LongText:                     first.LongText,
		PresentedLanguage:            first.PresentedLanguage,
	}
}

func strPtr(s string) *string { return &s }
