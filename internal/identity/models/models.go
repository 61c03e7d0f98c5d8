// Package models defines the identity domain types.
package models

import "github.com/google/uuid"

// Identity binds an external (user id, id-type) pair to a stable master id.
// At most one identity exists per pair; the master id never changes once minted.
type Identity struct {
	MasterID uuid.UUID
	UserID   string
	IDTypeID int
}

// Alias is one external identifier attached to a master identity, as exposed
// in enriched decision payloads.
type Alias struct {
	UserID   string `json:"user_id"`
	IDTypeID int    `json:"id_type_id"`
}
