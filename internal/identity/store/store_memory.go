package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"privacy-consent/internal/identity/models"
	"privacy-consent/internal/sentinel"
)

type pairKey struct {
	userID   string
	idTypeID int
}

// InMemoryStore keeps identity bindings in memory for tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	byPair   map[pairKey]models.Identity
	byMaster map[uuid.UUID][]pairKey

	// FailResolve makes ResolveOrCreate fail, simulating an unreachable store.
	FailResolve error
}

// NewMemory constructs an empty in-memory identity store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byPair:   make(map[pairKey]models.Identity),
		byMaster: make(map[uuid.UUID][]pairKey),
	}
}

func (s *InMemoryStore) ResolveOrCreate(_ context.Context, userID string, idTypeID int) (uuid.UUID, error) {
	if s.FailResolve != nil {
		return uuid.Nil, s.FailResolve
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID: userID, idTypeID: idTypeID}
	if existing, ok := s.byPair[key]; ok {
		return existing.MasterID, nil
	}
	identity := models.Identity{MasterID: uuid.New(), UserID: userID, IDTypeID: idTypeID}
	s.byPair[key] = identity
	s.byMaster[identity.MasterID] = append(s.byMaster[identity.MasterID], key)
	return identity.MasterID, nil
}

func (s *InMemoryStore) Lookup(_ context.Context, userID string, idTypeID int) (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.byPair[pairKey{userID: userID, idTypeID: idTypeID}]
	if !ok {
		return models.Identity{}, sentinel.ErrNotFound
	}
	return identity, nil
}

func (s *InMemoryStore) Aliases(_ context.Context, masterID uuid.UUID) ([]models.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byMaster[masterID]
	aliases := make([]models.Alias, 0, len(keys))
	for _, key := range keys {
		aliases = append(aliases, models.Alias{UserID: key.userID, IDTypeID: key.idTypeID})
	}
	return aliases, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID string, idTypeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID: userID, idTypeID: idTypeID}
	identity, ok := s.byPair[key]
	if !ok {
		return nil
	}
	delete(s.byPair, key)
	keys := s.byMaster[identity.MasterID]
	for i, k := range keys {
		if k == key {
			s.byMaster[identity.MasterID] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(s.byMaster[identity.MasterID]) == 0 {
		delete(s.byMaster, identity.MasterID)
	}
	return nil
}
