package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"privacy-consent/internal/decision/models"
	identitymodels "privacy-consent/internal/identity/models"
	"privacy-consent/internal/sentinel"
)

// IdentityLookup resolves external pairs to master identities. The identity
// store's read side satisfies it.
type IdentityLookup interface {
	Lookup(ctx context.Context, userID string, idTypeID int) (identitymodels.Identity, error)
}

// ConsentSnapshot is a catalog consent row as seen by tests and the
// in-memory enrichment join.
type ConsentSnapshot struct {
	ID            int
	Name          string
	ConsentTypeID int
	OwnerID       *int
	ProductID     *int
}

// ConsentTypeSnapshot is a catalog consent type row.
type ConsentTypeSnapshot struct {
	ID           int
	Name         string
	DefaultOptIn bool
}

// ExpressionSnapshot is a catalog expression row.
type ExpressionSnapshot struct {
	ID          int
	ConsentID   int
	Name        string
	Description string
}

// ExpressionTextSnapshot is one per-language text row.
type ExpressionTextSnapshot struct {
	Title     string
	ShortText string
	LongText  string
}

// DecisionSnapshot is one current-state row.
type DecisionSnapshot struct {
	ID                        int
	MasterID                  uuid.UUID
	ConsentID                 int
	ConsentExpressionID       *int
	ParentConsentExpressionID *int
	IsAgreed                  bool
	LastDecisionDate          time.Time
	LastSeenDate              *time.Time
	UserConsentSourceID       *int
	PresentedLanguage         *string
	ChangeContext             *string
	IDTypeID                  *int
	OwnerID                   *int
	UserID                    string
}

// AuditSnapshot is one immutable audit row.
type AuditSnapshot struct {
	ID                        int64
	DecisionID                int
	ConsentExpressionID       *int
	ParentConsentExpressionID *int
	IsAgreed                  bool
	Date                      time.Time
	PresentedLanguage         *string
	UserConsentSourceID       *int
	ChangeContext             *string
	UserID                    string
	IDTypeID                  int
}

type decisionKey struct {
	masterID  uuid.UUID
	consentID int
}

type textKey struct {
	expressionID int
	language     string
}

// InMemoryStore keeps the catalog, decision state, and audit trail in memory
// for tests. Catalog rows are seeded explicitly; audit ids are assigned from
// a single strictly increasing counter.
type InMemoryStore struct {
	identities IdentityLookup

	mu           sync.RWMutex
	consentTypes map[int]ConsentTypeSnapshot
	consents     map[int]ConsentSnapshot
	expressions  map[int]ExpressionSnapshot
	texts        map[textKey]ExpressionTextSnapshot

	decisions    map[int]*DecisionSnapshot
	decisionIdx  map[decisionKey]int
	audits       map[int64]AuditSnapshot
	nextDecision int
	nextAudit    int64

	// FailAppendAudit makes the next AppendAudit call fail.
	FailAppendAudit error
}

// NewMemory constructs an empty in-memory decision store.
func NewMemory(identities IdentityLookup) *InMemoryStore {
	return &InMemoryStore{
		identities:   identities,
		consentTypes: make(map[int]ConsentTypeSnapshot),
		consents:     make(map[int]ConsentSnapshot),
		expressions:  make(map[int]ExpressionSnapshot),
		texts:        make(map[textKey]ExpressionTextSnapshot),
		decisions:    make(map[int]*DecisionSnapshot),
		decisionIdx:  make(map[decisionKey]int),
		audits:       make(map[int64]AuditSnapshot),
	}
}

// SeedConsentType adds a catalog consent type row.
func (s *InMemoryStore) SeedConsentType(t ConsentTypeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consentTypes[t.ID] = t
}

// SeedConsent adds a catalog consent row.
func (s *InMemoryStore) SeedConsent(c ConsentSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents[c.ID] = c
}

// SeedExpression adds a catalog expression row.
func (s *InMemoryStore) SeedExpression(e ExpressionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expressions[e.ID] = e
}

// SeedExpressionText adds one per-language text row for an expression.
func (s *InMemoryStore) SeedExpressionText(expressionID int, language string, text ExpressionTextSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[textKey{expressionID: expressionID, language: language}] = text
}

func (s *InMemoryStore) ConsentOwnerMap(_ context.Context, expressionIDs []int) (map[int]models.ConsentOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int]models.ConsentOwner, len(expressionIDs))
	for _, id := range expressionIDs {
		expr, ok := s.expressions[id]
		if !ok {
			continue
		}
		consent, ok := s.consents[expr.ConsentID]
		if !ok {
			continue
		}
		result[id] = models.ConsentOwner{ConsentID: consent.ID, OwnerID: consent.OwnerID}
	}
	return result, nil
}

func (s *InMemoryStore) UpsertDecision(_ context.Context, up models.DecisionUpsert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := decisionKey{masterID: up.MasterID, consentID: up.ConsentID}
	now := time.Now().UTC()

	if id, ok := s.decisionIdx[key]; ok {
		row := s.decisions[id]
		row.ConsentExpressionID = up.ConsentExpressionID
		row.ParentConsentExpressionID = up.ParentConsentExpressionID
		row.IsAgreed = up.IsAgreed
		row.LastDecisionDate = now
		row.UserConsentSourceID = up.UserConsentSourceID
		row.PresentedLanguage = up.PresentedLanguage
		row.ChangeContext = up.ChangeContext
		row.IDTypeID = up.IDTypeID
		row.OwnerID = up.OwnerID
		if up.UserID != "" {
			row.UserID = up.UserID
		}
		return id, nil
	}

	s.nextDecision++
	row := &DecisionSnapshot{
		ID:                        s.nextDecision,
		MasterID:                  up.MasterID,
		ConsentID:                 up.ConsentID,
		ConsentExpressionID:       up.ConsentExpressionID,
		ParentConsentExpressionID: up.ParentConsentExpressionID,
		IsAgreed:                  up.IsAgreed,
		LastDecisionDate:          now,
		UserConsentSourceID:       up.UserConsentSourceID,
		PresentedLanguage:         up.PresentedLanguage,
		ChangeContext:             up.ChangeContext,
		IDTypeID:                  up.IDTypeID,
		OwnerID:                   up.OwnerID,
		UserID:                    up.UserID,
	}
	s.decisions[row.ID] = row
	s.decisionIdx[key] = row.ID
	return row.ID, nil
}

func (s *InMemoryStore) AppendAudit(_ context.Context, entry models.AuditEntry) (int64, error) {
	if s.FailAppendAudit != nil {
		return 0, s.FailAppendAudit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAudit++
	audit := AuditSnapshot{
		ID:                        s.nextAudit,
		DecisionID:                entry.DecisionID,
		ConsentExpressionID:       entry.ConsentExpressionID,
		ParentConsentExpressionID: entry.ParentConsentExpressionID,
		IsAgreed:                  entry.IsAgreed,
		Date:                      time.Now().UTC(),
		PresentedLanguage:         entry.PresentedLanguage,
		UserConsentSourceID:       entry.UserConsentSourceID,
		ChangeContext:             entry.ChangeContext,
		UserID:                    entry.UserID,
		IDTypeID:                  entry.IDTypeID,
	}
	s.audits[audit.ID] = audit
	return audit.ID, nil
}

func (s *InMemoryStore) History(ctx context.Context, userID string, idTypeID, consentID int) ([]models.HistoryEntry, error) {
	identity, err := s.identities.Lookup(ctx, userID, idTypeID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	decisionID, ok := s.decisionIdx[decisionKey{masterID: identity.MasterID, consentID: consentID}]
	if !ok {
		return nil, nil
	}

	var history []models.HistoryEntry
	for _, audit := range s.audits {
		if audit.DecisionID != decisionID {
			continue
		}
		entry := models.HistoryEntry{
			ConsentID:                 consentID,
			ParentConsentExpressionID: audit.ParentConsentExpressionID,
			ChangeContext:             audit.ChangeContext,
			IsAgreed:                  audit.IsAgreed,
			Date:                      audit.Date,
		}
		if audit.ConsentExpressionID != nil {
			entry.ConsentExpressionID = *audit.ConsentExpressionID
		}
		if audit.PresentedLanguage != nil {
			entry.PresentedLanguage = *audit.PresentedLanguage
		}
		if audit.UserConsentSourceID != nil {
			entry.UserConsentSourceID = *audit.UserConsentSourceID
		}
		history = append(history, entry)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.After(history[j].Date) })
	return history, nil
}

func (s *InMemoryStore) RetractCurrent(ctx context.Context, userID string, idTypeID, consentID int) error {
	identity, err := s.identities.Lookup(ctx, userID, idTypeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := decisionKey{masterID: identity.MasterID, consentID: consentID}
	id, ok := s.decisionIdx[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.decisions, id)
	delete(s.decisionIdx, key)
	return nil
}

func (s *InMemoryStore) SetCurrent(ctx context.Context, userID string, idTypeID, consentID int, agreed bool) error {
	identity, err := s.identities.Lookup(ctx, userID, idTypeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.decisionIdx[decisionKey{masterID: identity.MasterID, consentID: consentID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	row := s.decisions[id]
	row.IsAgreed = agreed
	row.LastDecisionDate = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) ShortDecisions(ctx context.Context, queries []models.ShortQuery) ([]models.ShortDecision, error) {
	var results []models.ShortDecision
	for _, q := range queries {
		identity, err := s.identities.Lookup(ctx, q.UserID, q.IDTypeID)
		if err != nil {
			continue
		}

		s.mu.RLock()
		consent, ok := s.consents[q.ConsentID]
		if !ok {
			s.mu.RUnlock()
			continue
		}
		short := models.ShortDecision{ConsentID: q.ConsentID, UserID: identity.UserID, IDTypeID: identity.IDTypeID}
		if id, decided := s.decisionIdx[decisionKey{masterID: identity.MasterID, consentID: q.ConsentID}]; decided {
			agreed := s.decisions[id].IsAgreed
			short.IsAgreed = &agreed
		} else if ct, ok := s.consentTypes[consent.ConsentTypeID]; ok && ct.DefaultOptIn {
			optIn := true
			short.IsAgreed = &optIn
		}
		s.mu.RUnlock()
		results = append(results, short)
	}
	return results, nil
}

func (s *InMemoryStore) UpdateLastSeen(_ context.Context, decisionIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range decisionIDs {
		if row, ok := s.decisions[id]; ok {
			seen := now
			row.LastSeenDate = &seen
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteByMaster(_ context.Context, masterID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, id := range s.decisionIdx {
		if key.masterID == masterID {
			delete(s.decisions, id)
			delete(s.decisionIdx, key)
		}
	}
	return nil
}

// Audit returns the audit row by id.
func (s *InMemoryStore) Audit(id int64) (AuditSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audit, ok := s.audits[id]
	return audit, ok
}

// AuditCount returns the number of audit rows.
func (s *InMemoryStore) AuditCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.audits)
}

// Decision returns the current-state row by id.
func (s *InMemoryStore) Decision(id int) (DecisionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.decisions[id]
	if !ok {
		return DecisionSnapshot{}, false
	}
	return *row, true
}

// DecisionCount returns the number of current-state rows.
func (s *InMemoryStore) DecisionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}

// Consent returns the catalog consent row by id.
func (s *InMemoryStore) Consent(id int) (ConsentSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	consent, ok := s.consents[id]
	return consent, ok
}

// Expression returns the catalog expression row by id.
func (s *InMemoryStore) Expression(id int) (ExpressionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expr, ok := s.expressions[id]
	return expr, ok
}

// ExpressionText returns the per-language text row for an expression.
func (s *InMemoryStore) ExpressionText(expressionID int, language string) (ExpressionTextSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.texts[textKey{expressionID: expressionID, language: language}]
	return text, ok
}
