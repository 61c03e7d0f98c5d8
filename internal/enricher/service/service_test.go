package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	decisionmodels "privacy-consent/internal/decision/models"
	decisionservice "privacy-consent/internal/decision/service"
	decisionstore "privacy-consent/internal/decision/store"
	"privacy-consent/internal/enricher/models"
	"privacy-consent/internal/enricher/policy"
	enricherstore "privacy-consent/internal/enricher/store"
	"privacy-consent/internal/events"
	identitystore "privacy-consent/internal/identity/store"
	"privacy-consent/internal/platform/kafka/producer"
	"privacy-consent/internal/sentinel"
	dErrors "privacy-consent/pkg/domain-errors"
)

type enrichedMessage struct {
	payload    *models.EnrichedDecision
	decisionID int
	ownerID    *int
}

type fakeEnrichedPublisher struct {
	messages []enrichedMessage
	err      error
}

func (p *fakeEnrichedPublisher) Publish(_ context.Context, payload any, decisionID int, ownerID *int) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, enrichedMessage{
		payload:    payload.(*models.EnrichedDecision),
		decisionID: decisionID,
		ownerID:    ownerID,
	})
	return nil
}

type rawRecorder struct {
	messages []*producer.Message
}

func (r *rawRecorder) Produce(_ context.Context, msg *producer.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

type fixture struct {
	identities *identitystore.InMemoryStore
	decisions  *decisionstore.InMemoryStore
	writer     *decisionservice.Service
	raw        *rawRecorder
	enriched   *fakeEnrichedPublisher
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	identities := identitystore.NewMemory()
	decisions := decisionstore.NewMemory(identities)

	denmark := 6
	other := 7
	decisions.SeedConsentType(decisionstore.ConsentTypeSnapshot{ID: 1, Name: "marketing"})
	decisions.SeedConsent(decisionstore.ConsentSnapshot{ID: 30, Name: "newsletter", ConsentTypeID: 1, OwnerID: &denmark})
	decisions.SeedConsent(decisionstore.ConsentSnapshot{ID: 31, Name: "profiling", ConsentTypeID: 1, OwnerID: &other})
	decisions.SeedExpression(decisionstore.ExpressionSnapshot{ID: 301, ConsentID: 30, Name: "newsletter-optin", Description: "weekly newsletter"})
	decisions.SeedExpression(decisionstore.ExpressionSnapshot{ID: 302, ConsentID: 31, Name: "profiling-optin"})
	decisions.SeedExpressionText(301, "en", decisionstore.ExpressionTextSnapshot{
		Title: "Newsletter", ShortText: "Get our newsletter", LongText: "Full terms of the newsletter",
	})
	decisions.SeedExpressionText(302, "en", decisionstore.ExpressionTextSnapshot{
		Title: "Profiling", ShortText: "short", LongText: "long",
	})

	logger := slog.Default()
	raw := &rawRecorder{}
	writer := decisionservice.NewService(
		decisions,
		decisionservice.NewMemoryTx(decisions),
		identities,
		events.NewDecisionPublisher(raw, "decisions.raw"),
		logger,
	)

	enriched := &fakeEnrichedPublisher{}
	svc := NewService(enricherstore.NewMemory(decisions, identities), policy.Default(), enriched, logger)

	return &fixture{
		identities: identities,
		decisions:  decisions,
		writer:     writer,
		raw:        raw,
		enriched:   enriched,
		service:    svc,
	}
}

func (f *fixture) saveOne(t *testing.T, expressionID int) int64 {
	t.Helper()
	auditIDs, err := f.writer.SaveDecisions(context.Background(), []decisionmodels.DecisionInput{{
		ConsentExpressionID: expressionID,
		IsAgreed:            true,
		UserConsentSourceID: 3,
		PresentedLanguage:   "en",
	}}, "222", 1)
	require.NoError(t, err)
	require.Len(t, auditIDs, 1)
	return auditIDs[0]
}

func TestEnrich_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Enrich(context.Background(), 99999)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestEnrichAndPublish_UnknownAuditIsNoOp(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.EnrichAndPublish(context.Background(), 99999))
	assert.Empty(t, f.enriched.messages)
}

func TestEnrich_ExtendedOwnerRetainsTexts(t *testing.T) {
	f := newFixture(t)
	auditID := f.saveOne(t, 301)

	record, err := f.service.Enrich(context.Background(), auditID)
	require.NoError(t, err)

	assert.True(t, record.IsAgreed)
	require.NotNil(t, record.ConsentExpressionID)
	assert.Equal(t, 301, *record.ConsentExpressionID)
	require.NotNil(t, record.Title)
	assert.Equal(t, "Newsletter", *record.Title)
	require.NotNil(t, record.ConsentName)
	assert.Equal(t, "newsletter", *record.ConsentName)
	require.NotNil(t, record.PresentedLanguage)
	assert.Equal(t, "en", *record.PresentedLanguage)
	require.Len(t, record.IDs, 1)
	assert.Equal(t, "222", record.IDs[0].UserID)
	assert.NotEqual(t, uuid.Nil, record.UUID)
}

func TestEnrich_DefaultOwnerMasksTexts(t *testing.T) {
	f := newFixture(t)
	auditID := f.saveOne(t, 302) // owner 7 has no extensions

	record, err := f.service.Enrich(context.Background(), auditID)
	require.NoError(t, err)

	assert.Nil(t, record.Title)
	assert.Nil(t, record.ConsentName)
	assert.Nil(t, record.ShortText)
	assert.Nil(t, record.LongText)
	assert.Nil(t, record.PresentedLanguage)
	// Identity fields are never masked.
	assert.True(t, record.IsAgreed)
	require.NotNil(t, record.OwnerID)
	assert.Equal(t, 7, *record.OwnerID)
}

func TestEnrich_RedeliverySameContentFreshUUID(t *testing.T) {
	f := newFixture(t)
	auditID := f.saveOne(t, 301)
	ctx := context.Background()

	first, err := f.service.Enrich(ctx, auditID)
	require.NoError(t, err)
	second, err := f.service.Enrich(ctx, auditID)
	require.NoError(t, err)

	assert.NotEqual(t, first.UUID, second.UUID)

	// Everything but the uuid matches.
	first.UUID = uuid.Nil
	second.UUID = uuid.Nil
	assert.Equal(t, first, second)
}

func TestEnrich_RetractedDecisionNotFound(t *testing.T) {
	f := newFixture(t)
	auditID := f.saveOne(t, 301)
	ctx := context.Background()

	require.NoError(t, f.decisions.RetractCurrent(ctx, "222", 1, 30))

	_, err := f.service.Enrich(ctx, auditID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestEnrichAndPublish_PublishFailure(t *testing.T) {
	f := newFixture(t)
	auditID := f.saveOne(t, 301)
	f.enriched.err = errors.New("broker unavailable")

	err := f.service.EnrichAndPublish(context.Background(), auditID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePublishFailed))
}

func TestEndToEnd_WriteThenEnrich(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auditID := f.saveOne(t, 301)

	// The raw channel carries {decision_audit_id} tagged with the owner.
	require.Len(t, f.raw.messages, 1)
	rawMsg := f.raw.messages[0]
	var decisionMsg events.DecisionMessage
	require.NoError(t, json.Unmarshal(rawMsg.Value, &decisionMsg))
	assert.Equal(t, auditID, decisionMsg.DecisionAuditID)
	assert.Equal(t, "6", rawMsg.Headers[events.AttrOwnerID])

	// Feed the raw message through the enricher.
	require.NoError(t, f.service.EnrichAndPublish(ctx, decisionMsg.DecisionAuditID))

	require.Len(t, f.enriched.messages, 1)
	out := f.enriched.messages[0]
	require.NotNil(t, out.ownerID)
	assert.Equal(t, 6, *out.ownerID)

	record := out.payload
	assert.True(t, record.IsAgreed)
	require.NotNil(t, record.ConsentExpressionID)
	assert.Equal(t, 301, *record.ConsentExpressionID)
	require.NotNil(t, record.Title)
	assert.NotEmpty(t, *record.Title)
}
