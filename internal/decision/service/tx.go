package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"privacy-consent/internal/sentinel"
	dErrors "privacy-consent/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for the upsert+audit unit.
// Implementations wrap a database transaction or, in-memory, a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// defaultDecisionTxTimeout bounds a single upsert+audit transaction.
const defaultDecisionTxTimeout = 5 * time.Second

type memoryTx struct {
	mu    sync.Mutex
	store Store
}

// NewMemoryTx wraps an in-memory store with a coarse lock for tests.
func NewMemoryTx(store Store) StoreTx {
	return &memoryTx{store: store}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultDecisionTxTimeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.store)
}

// storeError maps store sentinels to domain errors.
func storeError(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
}
