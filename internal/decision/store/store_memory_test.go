package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-consent/internal/decision/models"
	identitystore "privacy-consent/internal/identity/store"
	"privacy-consent/internal/sentinel"
)

func seedCatalog(s *InMemoryStore) {
	s.SeedConsentType(ConsentTypeSnapshot{ID: 1, Name: "marketing", DefaultOptIn: false})
	s.SeedConsentType(ConsentTypeSnapshot{ID: 2, Name: "service", DefaultOptIn: true})
	owner := 6
	s.SeedConsent(ConsentSnapshot{ID: 30, Name: "newsletter", ConsentTypeID: 1, OwnerID: &owner})
	s.SeedConsent(ConsentSnapshot{ID: 31, Name: "terms", ConsentTypeID: 2})
	s.SeedExpression(ExpressionSnapshot{ID: 301, ConsentID: 30, Name: "newsletter-optin"})
	s.SeedExpression(ExpressionSnapshot{ID: 310, ConsentID: 31, Name: "terms-v2"})
}

func TestInMemoryStore_ConsentOwnerMap(t *testing.T) {
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	m, err := s.ConsentOwnerMap(context.Background(), []int{301, 310, 999})
	require.NoError(t, err)
	require.Len(t, m, 2)

	assert.Equal(t, 30, m[301].ConsentID)
	require.NotNil(t, m[301].OwnerID)
	assert.Equal(t, 6, *m[301].OwnerID)

	assert.Equal(t, 31, m[310].ConsentID)
	assert.Nil(t, m[310].OwnerID)
}

func TestInMemoryStore_UpsertDecision_StableID(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	first, err := s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID,
		IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)

	second, err := s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID,
		IsAgreed: false, UserID: "222",
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.DecisionCount())

	row, ok := s.Decision(first)
	require.True(t, ok)
	assert.False(t, row.IsAgreed)
}

func TestInMemoryStore_AppendAudit_StrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(identitystore.NewMemory())

	var last int64
	for i := 0; i < 5; i++ {
		id, err := s.AppendAudit(ctx, models.AuditEntry{DecisionID: 1, IsAgreed: true, UserID: "222", IDTypeID: 1})
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
	assert.Equal(t, 5, s.AuditCount())
}

func TestInMemoryStore_History_NewestFirst(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	decisionID, err := s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID, IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)

	for _, agreed := range []bool{true, false} {
		_, err := s.AppendAudit(ctx, models.AuditEntry{
			DecisionID: decisionID, ConsentExpressionID: &exprID,
			IsAgreed: agreed, UserID: "222", IDTypeID: 1,
		})
		require.NoError(t, err)
	}

	history, err := s.History(ctx, "222", 1, 30)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].Date.Before(history[1].Date))
}

func TestInMemoryStore_RetractCurrent(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	decisionID, err := s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID, IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)
	_, err = s.AppendAudit(ctx, models.AuditEntry{DecisionID: decisionID, IsAgreed: true, UserID: "222", IDTypeID: 1})
	require.NoError(t, err)

	require.NoError(t, s.RetractCurrent(ctx, "222", 1, 30))
	assert.Equal(t, 0, s.DecisionCount())
	// Audit history survives retraction.
	assert.Equal(t, 1, s.AuditCount())

	err = s.RetractCurrent(ctx, "222", 1, 30)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SetCurrent(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	decisionID, err := s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID, IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)

	require.NoError(t, s.SetCurrent(ctx, "222", 1, 30, false))
	row, ok := s.Decision(decisionID)
	require.True(t, ok)
	assert.False(t, row.IsAgreed)
	// No audit row is created by the direct mutation.
	assert.Equal(t, 0, s.AuditCount())

	err = s.SetCurrent(ctx, "222", 1, 99, true)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_ShortDecisions(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	_, err = s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID, IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)

	results, err := s.ShortDecisions(ctx, []models.ShortQuery{
		{ConsentID: 30, UserID: "222", IDTypeID: 1}, // decided
		{ConsentID: 31, UserID: "222", IDTypeID: 1}, // undecided, default opt-in
		{ConsentID: 30, UserID: "999", IDTypeID: 1}, // unknown user, skipped
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NotNil(t, results[0].IsAgreed)
	assert.True(t, *results[0].IsAgreed)

	require.NotNil(t, results[1].IsAgreed)
	assert.True(t, *results[1].IsAgreed)
}

func TestInMemoryStore_UpdateLastSeen(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	decisionID, err := s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID, IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)

	require.NoError(t, s.UpdateLastSeen(ctx, []int{decisionID, 999}))
	row, ok := s.Decision(decisionID)
	require.True(t, ok)
	assert.NotNil(t, row.LastSeenDate)
}

func TestInMemoryStore_DeleteByMaster(t *testing.T) {
	ctx := context.Background()
	identities := identitystore.NewMemory()
	s := NewMemory(identities)
	seedCatalog(s)

	masterID, err := identities.ResolveOrCreate(ctx, "222", 1)
	require.NoError(t, err)

	exprID := 301
	_, err = s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 30, ConsentExpressionID: &exprID, IsAgreed: true, UserID: "222",
	})
	require.NoError(t, err)
	exprID2 := 310
	_, err = s.UpsertDecision(ctx, models.DecisionUpsert{
		MasterID: masterID, ConsentID: 31, ConsentExpressionID: &exprID2, IsAgreed: false, UserID: "222",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteByMaster(ctx, masterID))
	assert.Equal(t, 0, s.DecisionCount())
}
