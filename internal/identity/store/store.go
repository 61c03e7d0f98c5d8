// Package store persists master identity bindings.
package store

import (
	"context"

	"github.com/google/uuid"

	"privacy-consent/internal/identity/models"
)

type Store interface {
	// ResolveOrCreate returns the master id bound to (userID, idTypeID),
	// minting a new one on first sight. Safe under concurrent first-time
	// callers: the unique constraint turns the losing insert into a lookup.
	ResolveOrCreate(ctx context.Context, userID string, idTypeID int) (uuid.UUID, error)

	// Lookup returns the existing binding or sentinel.ErrNotFound. Never creates.
	Lookup(ctx context.Context, userID string, idTypeID int) (models.Identity, error)

	// Aliases returns every external pair bound to the master id.
	Aliases(ctx context.Context, masterID uuid.UUID) ([]models.Alias, error)

	// Delete removes the binding for (userID, idTypeID). Test cleanup only;
	// callers must delete dependent decision rows first.
	Delete(ctx context.Context, userID string, idTypeID int) error
}
