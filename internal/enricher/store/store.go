// Package store reads the joined decision context used for enrichment.
package store

import (
	"context"

	"privacy-consent/internal/enricher/models"
)

type Store interface {
	// ConsentRelations joins the audit row with its decision state, consent,
	// consent type, master identity aliases, expression and the per-language
	// text matching the audit's presented language. Absent text yields empty
	// strings, not an error. An unknown audit id yields an empty slice.
	ConsentRelations(ctx context.Context, decisionAuditID int64) ([]models.RelationRow, error)
}
