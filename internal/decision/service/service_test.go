package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-consent/internal/decision/models"
	"privacy-consent/internal/decision/store"
	identitystore "privacy-consent/internal/identity/store"
	dErrors "privacy-consent/pkg/domain-errors"
)

type published struct {
	auditID int64
	ownerID *int
}

type fakePublisher struct {
	messages  []published
	failAfter int // fail the (failAfter+1)-th publish; -1 never fails
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failAfter: -1}
}

func (p *fakePublisher) Publish(_ context.Context, auditID int64, ownerID *int) error {
	if p.failAfter >= 0 && len(p.messages) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, published{auditID: auditID, ownerID: ownerID})
	return nil
}

type fixture struct {
	identities *identitystore.InMemoryStore
	store      *store.InMemoryStore
	publisher  *fakePublisher
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	identities := identitystore.NewMemory()
	decisionStore := store.NewMemory(identities)
	publisher := newFakePublisher()

	owner := 6
	decisionStore.SeedConsentType(store.ConsentTypeSnapshot{ID: 1, Name: "marketing"})
	decisionStore.SeedConsent(store.ConsentSnapshot{ID: 30, Name: "newsletter", ConsentTypeID: 1, OwnerID: &owner})
	decisionStore.SeedConsent(store.ConsentSnapshot{ID: 31, Name: "profiling", ConsentTypeID: 1, OwnerID: &owner})
	decisionStore.SeedExpression(store.ExpressionSnapshot{ID: 301, ConsentID: 30, Name: "newsletter-optin"})
	decisionStore.SeedExpression(store.ExpressionSnapshot{ID: 302, ConsentID: 31, Name: "profiling-optin"})

	svc := NewService(decisionStore, NewMemoryTx(decisionStore), identities, publisher, slog.Default())
	return &fixture{identities: identities, store: decisionStore, publisher: publisher, service: svc}
}

func input(expressionID int, agreed bool) models.DecisionInput {
	return models.DecisionInput{
		ConsentExpressionID: expressionID,
		IsAgreed:            agreed,
		UserConsentSourceID: 3,
		PresentedLanguage:   "en",
	}
}

func TestSaveDecisions_UpsertThenAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auditIDs, err := f.service.SaveDecisions(ctx, []models.DecisionInput{
		input(301, true),
		input(302, false),
	}, "222", 1)
	require.NoError(t, err)
	require.Len(t, auditIDs, 2)
	assert.Greater(t, auditIDs[1], auditIDs[0])

	assert.Equal(t, 2, f.store.DecisionCount())
	assert.Equal(t, 2, f.store.AuditCount())

	audit, ok := f.store.Audit(auditIDs[0])
	require.True(t, ok)
	assert.True(t, audit.IsAgreed)
	assert.Equal(t, "222", audit.UserID)
	assert.Equal(t, 1, audit.IDTypeID)

	require.Len(t, f.publisher.messages, 2)
	assert.Equal(t, auditIDs[0], f.publisher.messages[0].auditID)
	require.NotNil(t, f.publisher.messages[0].ownerID)
	assert.Equal(t, 6, *f.publisher.messages[0].ownerID)
}

func TestSaveDecisions_SecondWriteOverwritesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, true)}, "222", 1)
	require.NoError(t, err)
	second, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, false)}, "222", 1)
	require.NoError(t, err)

	// One current-state row, two audit rows.
	assert.Equal(t, 1, f.store.DecisionCount())
	assert.Equal(t, 2, f.store.AuditCount())
	assert.Greater(t, second[0], first[0])

	firstAudit, ok := f.store.Audit(first[0])
	require.True(t, ok)
	decision, ok := f.store.Decision(firstAudit.DecisionID)
	require.True(t, ok)
	assert.False(t, decision.IsAgreed)
}

func TestSaveDecisions_SkipUnknownExpression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auditIDs, err := f.service.SaveDecisions(ctx, []models.DecisionInput{
		input(301, true),
		input(999, true), // unknown expression
		input(302, false),
	}, "222", 1)
	require.NoError(t, err)
	assert.Len(t, auditIDs, 2)
	assert.Equal(t, 2, f.store.DecisionCount())
	assert.Equal(t, 2, f.store.AuditCount())
	assert.Len(t, f.publisher.messages, 2)
}

func TestSaveDecisions_EmptyBatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.SaveDecisions(context.Background(), nil, "222", 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestSaveDecisions_IdentityResolutionFailure(t *testing.T) {
	f := newFixture(t)
	f.identities.FailResolve = errors.New("identity store unreachable")

	_, err := f.service.SaveDecisions(context.Background(), []models.DecisionInput{input(301, true)}, "222", 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeIdentityResolution))
	assert.Equal(t, 0, f.store.DecisionCount())
	assert.Equal(t, 0, f.store.AuditCount())
	assert.Empty(t, f.publisher.messages)
}

func TestSaveDecisions_PublishFailureKeepsPriorCommits(t *testing.T) {
	f := newFixture(t)
	f.publisher.failAfter = 1 // first publish succeeds, second fails

	auditIDs, err := f.service.SaveDecisions(context.Background(), []models.DecisionInput{
		input(301, true),
		input(302, false),
	}, "222", 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePublishFailed))

	// Both inputs were committed before the failing publish; only the first
	// message made it onto the channel.
	assert.Equal(t, 2, f.store.DecisionCount())
	assert.Equal(t, 2, f.store.AuditCount())
	assert.Len(t, f.publisher.messages, 1)
	assert.Len(t, auditIDs, 2)
}

func TestSaveDecisions_AuditFailureAbortsWrite(t *testing.T) {
	f := newFixture(t)
	f.store.FailAppendAudit = errors.New("disk full")

	_, err := f.service.SaveDecisions(context.Background(), []models.DecisionInput{input(301, true)}, "222", 1)
	require.Error(t, err)
	assert.Empty(t, f.publisher.messages)
	assert.Equal(t, 0, f.store.AuditCount())
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, true)}, "222", 1)
	require.NoError(t, err)
	_, err = f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, false)}, "222", 1)
	require.NoError(t, err)

	history, err := f.service.History(ctx, "222", 1, 30)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRetract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, true)}, "222", 1)
	require.NoError(t, err)

	req := models.RetractRequest{UserID: "222", IDTypeID: 1, ConsentID: 30, UserConsentSourceID: 3}
	require.NoError(t, f.service.Retract(ctx, req))
	assert.Equal(t, 0, f.store.DecisionCount())
	assert.Equal(t, 1, f.store.AuditCount())

	err = f.service.Retract(ctx, req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auditIDs, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, true)}, "222", 1)
	require.NoError(t, err)

	req := models.UpdateLastRequest{UserID: "222", IDTypeID: 1, ConsentID: 30, Value: false}
	require.NoError(t, f.service.UpdateLast(ctx, req))

	audit, ok := f.store.Audit(auditIDs[0])
	require.True(t, ok)
	decision, ok := f.store.Decision(audit.DecisionID)
	require.True(t, ok)
	assert.False(t, decision.IsAgreed)
	// Direct mutation bypasses the audit trail.
	assert.Equal(t, 1, f.store.AuditCount())

	err = f.service.UpdateLast(ctx, models.UpdateLastRequest{UserID: "missing", IDTypeID: 1, ConsentID: 30})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestShortDecisions_EmptyQueries(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ShortDecisions(context.Background(), nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestMarkSeen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auditIDs, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, true)}, "222", 1)
	require.NoError(t, err)
	audit, ok := f.store.Audit(auditIDs[0])
	require.True(t, ok)

	require.NoError(t, f.service.MarkSeen(ctx, []int{audit.DecisionID}))
	decision, ok := f.store.Decision(audit.DecisionID)
	require.True(t, ok)
	assert.NotNil(t, decision.LastSeenDate)

	err = f.service.MarkSeen(ctx, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestPurgeTestUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.SaveDecisions(ctx, []models.DecisionInput{input(301, true)}, "222", 1)
	require.NoError(t, err)

	require.NoError(t, f.service.PurgeTestUser(ctx, "222", 1))
	assert.Equal(t, 0, f.store.DecisionCount())
	// The audit trail is the legal record and survives the purge.
	assert.Equal(t, 1, f.store.AuditCount())

	err = f.service.PurgeTestUser(ctx, "222", 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
