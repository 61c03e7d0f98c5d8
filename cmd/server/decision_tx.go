package main

import (
	"context"
	"database/sql"
	"time"

	decisionservice "privacy-consent/internal/decision/service"
	decisionstore "privacy-consent/internal/decision/store"
	dErrors "privacy-consent/pkg/domain-errors"
)

const defaultDecisionTxTimeout = 5 * time.Second

// decisionPostgresTx runs the upsert+audit unit inside a single database
// transaction so a failed audit insert rolls the state write back.
type decisionPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDecisionPostgresTx(db *sql.DB) *decisionPostgresTx {
	return &decisionPostgresTx{db: db}
}

func (t *decisionPostgresTx) RunInTx(ctx context.Context, fn func(store decisionservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDecisionTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(decisionstore.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
