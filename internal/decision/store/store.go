// Package store persists decision state and the append-only audit trail.
package store

import (
	"context"

	"github.com/google/uuid"

	"privacy-consent/internal/decision/models"
)

// Store is the persistence surface of the decision write and read paths.
//
// Error contract:
// - Lookups return sentinel.ErrNotFound when the target row does not exist.
// - Mutations return nil on success or a wrapped error on infrastructure failure.
// - AppendAudit never fails silently; a failed append aborts the enclosing write.
type Store interface {
	// ConsentOwnerMap resolves expression ids to their owning consent and
	// data owner in one batched query. Unknown ids are absent from the map.
	ConsentOwnerMap(ctx context.Context, expressionIDs []int) (map[int]models.ConsentOwner, error)

	// UpsertDecision writes the current-state row for (master, consent),
	// overwriting all mutable fields and refreshing the last-decision
	// timestamp. Returns the stable decision id either way.
	UpsertDecision(ctx context.Context, up models.DecisionUpsert) (int, error)

	// AppendAudit inserts one immutable audit row and returns its id,
	// strictly increasing across the whole trail.
	AppendAudit(ctx context.Context, entry models.AuditEntry) (int64, error)

	// History returns the audit trail for (user, id type, consent), newest first.
	History(ctx context.Context, userID string, idTypeID, consentID int) ([]models.HistoryEntry, error)

	// RetractCurrent deletes the current-state row. Audit rows survive.
	RetractCurrent(ctx context.Context, userID string, idTypeID, consentID int) error

	// SetCurrent mutates the current agreement flag and timestamp in place
	// without creating an audit row. This bypasses the one-audit-per-write
	// invariant and exists only for administrative correction flows.
	SetCurrent(ctx context.Context, userID string, idTypeID, consentID int, agreed bool) error

	// ShortDecisions answers current-state queries, falling back to the
	// consent type's default opt-in when the user has never decided.
	ShortDecisions(ctx context.Context, queries []models.ShortQuery) ([]models.ShortDecision, error)

	// UpdateLastSeen stamps the last-seen date on the given decision rows.
	UpdateLastSeen(ctx context.Context, decisionIDs []int) error

	// DeleteByMaster removes all current-state rows bound to a master id.
	// Test cleanup only; audit rows are intentionally left behind.
	DeleteByMaster(ctx context.Context, masterID uuid.UUID) error
}
