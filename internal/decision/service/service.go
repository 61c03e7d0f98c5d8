// Package service orchestrates the decision write path: identity resolution,
// ownership lookup, the upsert+audit unit, and the raw channel publish.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"privacy-consent/internal/decision/metrics"
	"privacy-consent/internal/decision/models"
	identitymodels "privacy-consent/internal/identity/models"
	dErrors "privacy-consent/pkg/domain-errors"
)

// Store defines the persistence interface for decision state and audit rows.
//
// Error contract:
// - History returns an empty slice, not an error, when nothing matches
// - RetractCurrent and SetCurrent return sentinel.ErrNotFound for missing rows
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	ConsentOwnerMap(ctx context.Context, expressionIDs []int) (map[int]models.ConsentOwner, error)
	UpsertDecision(ctx context.Context, up models.DecisionUpsert) (int, error)
	AppendAudit(ctx context.Context, entry models.AuditEntry) (int64, error)
	History(ctx context.Context, userID string, idTypeID, consentID int) ([]models.HistoryEntry, error)
	RetractCurrent(ctx context.Context, userID string, idTypeID, consentID int) error
	SetCurrent(ctx context.Context, userID string, idTypeID, consentID int, agreed bool) error
	ShortDecisions(ctx context.Context, queries []models.ShortQuery) ([]models.ShortDecision, error)
	UpdateLastSeen(ctx context.Context, decisionIDs []int) error
	DeleteByMaster(ctx context.Context, masterID uuid.UUID) error
}

// IdentityStore resolves and maintains master identity bindings.
type IdentityStore interface {
	ResolveOrCreate(ctx context.Context, userID string, idTypeID int) (uuid.UUID, error)
	Lookup(ctx context.Context, userID string, idTypeID int) (identitymodels.Identity, error)
	Delete(ctx context.Context, userID string, idTypeID int) error
}

// Publisher sends raw decision messages. Publishing is synchronous; an error
// here is terminal for the enclosing request.
type Publisher interface {
	Publish(ctx context.Context, auditID int64, ownerID *int) error
}

type Option func(*Service)

// Service coordinates decision writes and the surrounding read operations.
type Service struct {
	store      Store
	tx         StoreTx
	identities IdentityStore
	publisher  Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(store Store, tx StoreTx, identities IdentityStore, publisher Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:      store,
		tx:         tx,
		identities: identities,
		publisher:  publisher,
		logger:     logger,
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

// SaveDecisions records a batch of decisions for one caller identity.
//
// Each decision is upserted and audited in one transaction, then published on
// the raw channel before the next input is processed. Inputs referencing
// unknown expressions are skipped with a warning. A publish failure stops the
// batch but leaves everything already committed in place; the returned audit
// ids cover the inputs completed before the failure.
func (s *Service) SaveDecisions(ctx context.Context, inputs []models.DecisionInput, userID string, idTypeID int) ([]int64, error) {
	if len(inputs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decisions list cannot be empty")
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.BatchesReceived.Inc()
		s.metrics.BatchSize.Observe(float64(len(inputs)))
	}

	masterID, err := s.identities.ResolveOrCreate(ctx, userID, idTypeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeIdentityResolution, "failed to resolve master identity")
	}

	ownerMap, err := s.store.ConsentOwnerMap(ctx, distinctExpressionIDs(inputs))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve consent ownership")
	}

	auditIDs := make([]int64, 0, len(inputs))
	for _, input := range inputs {
		owner, ok := ownerMap[input.ConsentExpressionID]
		if !ok {
			s.logger.WarnContext(ctx, "consent not found for expression, skipping decision",
				"consent_expression_id", input.ConsentExpressionID,
			)
			if s.metrics != nil {
				s.metrics.DecisionsSkipped.Inc()
			}
			continue
		}

		auditID, err := s.writeDecision(ctx, masterID, owner, input, userID, idTypeID)
		if err != nil {
			return auditIDs, err
		}
		auditIDs = append(auditIDs, auditID)

		// Publish after commit, never before. A failure here propagates while
		// everything committed so far stays committed.
		if err := s.publisher.Publish(ctx, auditID, owner.OwnerID); err != nil {
			if s.metrics != nil {
				s.metrics.PublishFailures.Inc()
			}
			return auditIDs, dErrors.Wrap(err, dErrors.CodePublishFailed, "failed to publish decision event")
		}

		if s.metrics != nil {
			s.metrics.DecisionsSaved.Inc()
		}
	}

	if s.metrics != nil {
		s.metrics.SaveBatchLatency.Observe(time.Since(start).Seconds())
	}
	return auditIDs, nil
}

// writeDecision runs the upsert+audit unit in one transaction.
func (s *Service) writeDecision(ctx context.Context, masterID uuid.UUID, owner models.ConsentOwner, input models.DecisionInput, userID string, idTypeID int) (int64, error) {
	exprID := input.ConsentExpressionID
	sourceID := input.UserConsentSourceID
	idType := idTypeID
	var language *string
	if input.PresentedLanguage != "" {
		language = &input.PresentedLanguage
	}

	var auditID int64
	err := s.tx.RunInTx(ctx, func(store Store) error {
		decisionID, err := store.UpsertDecision(ctx, models.DecisionUpsert{
			MasterID:                  masterID,
			ConsentID:                 owner.ConsentID,
			ConsentExpressionID:       &exprID,
			ParentConsentExpressionID: input.ParentConsentExpressionID,
			IsAgreed:                  input.IsAgreed,
			UserConsentSourceID:       &sourceID,
			PresentedLanguage:         language,
			ChangeContext:             input.ChangeContext,
			IDTypeID:                  &idType,
			OwnerID:                   owner.OwnerID,
			UserID:                    userID,
		})
		if err != nil {
			return err
		}

		auditID, err = store.AppendAudit(ctx, models.AuditEntry{
			DecisionID:                decisionID,
			ConsentExpressionID:       &exprID,
			ParentConsentExpressionID: input.ParentConsentExpressionID,
			IsAgreed:                  input.IsAgreed,
			PresentedLanguage:         language,
			UserConsentSourceID:       &sourceID,
			ChangeContext:             input.ChangeContext,
			UserID:                    userID,
			IDTypeID:                  idTypeID,
		})
		return err
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
	}
	return auditID, nil
}

// History returns the full audit history for one (user, consent) pair,
// newest first.
func (s *Service) History(ctx context.Context, userID string, idTypeID, consentID int) ([]models.HistoryEntry, error) {
	history, err := s.store.History(ctx, userID, idTypeID, consentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read decision history")
	}
	return history, nil
}

// Retract deletes the current decision row. The audit trail is untouched.
func (s *Service) Retract(ctx context.Context, req models.RetractRequest) error {
	if err := s.store.RetractCurrent(ctx, req.UserID, req.IDTypeID, req.ConsentID); err != nil {
		return storeError(err, "decision not found")
	}
	if s.metrics != nil {
		s.metrics.DecisionsRetracted.Inc()
	}
	return nil
}

// UpdateLast flips the current agreement flag in place without auditing.
func (s *Service) UpdateLast(ctx context.Context, req models.UpdateLastRequest) error {
	if err := s.store.SetCurrent(ctx, req.UserID, req.IDTypeID, req.ConsentID, req.Value); err != nil {
		return storeError(err, "decision not found")
	}
	return nil
}

// ShortDecisions answers current-state queries for a batch of pairs.
func (s *Service) ShortDecisions(ctx context.Context, queries []models.ShortQuery) ([]models.ShortDecision, error) {
	if len(queries) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "queries list cannot be empty")
	}
	results, err := s.store.ShortDecisions(ctx, queries)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read short decisions")
	}
	return results, nil
}

// MarkSeen stamps the last-seen date on the given decision rows.
func (s *Service) MarkSeen(ctx context.Context, decisionIDs []int) error {
	if len(decisionIDs) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "decision ids list cannot be empty")
	}
	if err := s.store.UpdateLastSeen(ctx, decisionIDs); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update last seen date")
	}
	return nil
}

// PurgeTestUser removes a test identity and its current decision rows. The
// audit trail is intentionally preserved.
func (s *Service) PurgeTestUser(ctx context.Context, userID string, idTypeID int) error {
	identity, err := s.identities.Lookup(ctx, userID, idTypeID)
	if err != nil {
		return storeError(err, "user not found")
	}
	if err := s.store.DeleteByMaster(ctx, identity.MasterID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete decisions")
	}
	if err := s.identities.Delete(ctx, userID, idTypeID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete identity")
	}
	return nil
}

func distinctExpressionIDs(inputs []models.DecisionInput) []int {
	seen := make(map[int]struct{}, len(inputs))
	ids := make([]int, 0, len(inputs))
	for _, input := range inputs {
		if _, ok := seen[input.ConsentExpressionID]; ok {
			continue
		}
		seen[input.ConsentExpressionID] = struct{}{}
		ids = append(ids, input.ConsentExpressionID)
	}
	return ids
}
