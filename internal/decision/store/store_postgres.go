package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"privacy-consent/internal/decision/models"
	"privacy-consent/internal/sentinel"
)

// PostgresStore persists decision state and audit rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed decision store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed decision store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) ConsentOwnerMap(ctx context.Context, expressionIDs []int) (map[int]models.ConsentOwner, error) {
	result := make(map[int]models.ConsentOwner, len(expressionIDs))
	if len(expressionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ce.id, ce.consent_id, c.owner_id
		FROM consent_expressions ce
		JOIN consents c ON c.id = ce.consent_id
		WHERE ce.id = ANY($1)
	`
	rows, err := s.execer().QueryContext(ctx, query, expressionIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve consent owners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expressionID int
		var owner models.ConsentOwner
		var ownerID sql.NullInt64
		if err := rows.Scan(&expressionID, &owner.ConsentID, &ownerID); err != nil {
			return nil, fmt.Errorf("scan consent owner: %w", err)
		}
		if ownerID.Valid {
			id := int(ownerID.Int64)
			owner.OwnerID = &id
		}
		result[expressionID] = owner
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent owners: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) UpsertDecision(ctx context.Context, up models.DecisionUpsert) (int, error) {
	// Single round trip: the conflict arm overwrites every mutable field and
	// refreshes the timestamp, preserving the row's stable id.
	query := `
		INSERT INTO user_consents (
			master_id, consent_id, consent_expression_id, parent_consent_expression_id,
			is_agreed, last_decision_date, user_consent_source_id, presented_language,
			change_context, id_type_id, owner_id, user_id
		)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, $7, $8, $9, $10, $11)
		ON CONFLICT (master_id, consent_id) DO UPDATE SET
			consent_expression_id        = EXCLUDED.consent_expression_id,
			parent_consent_expression_id = EXCLUDED.parent_consent_expression_id,
			is_agreed                    = EXCLUDED.is_agreed,
			last_decision_date           = NOW(),
			user_consent_source_id       = EXCLUDED.user_consent_source_id,
			presented_language           = EXCLUDED.presented_language,
			change_context               = EXCLUDED.change_context,
			id_type_id                   = EXCLUDED.id_type_id,
			owner_id                     = EXCLUDED.owner_id,
			user_id                      = CASE WHEN EXCLUDED.user_id <> '' THEN EXCLUDED.user_id ELSE user_consents.user_id END
		RETURNING id
	`
	var decisionID int
	err := s.execer().QueryRowContext(ctx, query,
		up.MasterID,
		up.ConsentID,
		up.ConsentExpressionID,
		up.ParentConsentExpressionID,
		up.IsAgreed,
		up.UserConsentSourceID,
		up.PresentedLanguage,
		up.ChangeContext,
		up.IDTypeID,
		up.OwnerID,
		up.UserID,
	).Scan(&decisionID)
	if err != nil {
		return 0, fmt.Errorf("upsert decision: %w", err)
	}
	return decisionID, nil
}

func (s *PostgresStore) AppendAudit(ctx context.Context, entry models.AuditEntry) (int64, error) {
	query := `
		INSERT INTO user_consent_audit_trail (
			decision_id, consent_expression_id, parent_consent_expression_id,
			is_agreed, date, presented_language, user_consent_source_id,
			change_context, user_id, id_type_id
		)
		VALUES ($1, $2, $3, $4, NOW(), $5, $6, $7, $8, $9)
		RETURNING id
	`
	var auditID int64
	err := s.execer().QueryRowContext(ctx, query,
		entry.DecisionID,
		entry.ConsentExpressionID,
		entry.ParentConsentExpressionID,
		entry.IsAgreed,
		entry.PresentedLanguage,
		entry.UserConsentSourceID,
		entry.ChangeContext,
		entry.UserID,
		entry.IDTypeID,
	).Scan(&auditID)
	if err != nil {
		return 0, fmt.Errorf("append audit: %w", err)
	}
	return auditID, nil
}

func (s *PostgresStore) History(ctx context.Context, userID string, idTypeID, consentID int) ([]models.HistoryEntry, error) {
	query := `
		SELECT d.consent_id, COALESCE(a.consent_expression_id, 0), a.parent_consent_expression_id,
		       COALESCE(a.presented_language, ''), a.change_context, a.is_agreed, a.date,
		       COALESCE(a.user_consent_source_id, 0)
		FROM user_consent_audit_trail a
		JOIN user_consents d ON d.id = a.decision_id
		JOIN master_ids m ON m.id = d.master_id
		WHERE m.user_id = $1 AND m.id_type_id = $2 AND d.consent_id = $3
		ORDER BY a.date DESC
	`
	rows, err := s.execer().QueryContext(ctx, query, userID, idTypeID, consentID)
	if err != nil {
		return nil, fmt.Errorf("read decision history: %w", err)
	}
	defer rows.Close()

	var history []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(
			&entry.ConsentID,
			&entry.ConsentExpressionID,
			&entry.ParentConsentExpressionID,
			&entry.PresentedLanguage,
			&entry.ChangeContext,
			&entry.IsAgreed,
			&entry.Date,
			&entry.UserConsentSourceID,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

func (s *PostgresStore) RetractCurrent(ctx context.Context, userID string, idTypeID, consentID int) error {
	query := `
		DELETE FROM user_consents d
		USING master_ids m
		WHERE m.id = d.master_id
		  AND m.user_id = $1 AND m.id_type_id = $2 AND d.consent_id = $3
	`
	result, err := s.execer().ExecContext(ctx, query, userID, idTypeID, consentID)
	if err != nil {
		return fmt.Errorf("retract decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("retract decision: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCurrent(ctx context.Context, userID string, idTypeID, consentID int, agreed bool) error {
	query := `
		UPDATE user_consents d
		SET is_agreed = $4, last_decision_date = NOW()
		FROM master_ids m
		WHERE m.id = d.master_id
		  AND m.user_id = $1 AND m.id_type_id = $2 AND d.consent_id = $3
	`
	result, err := s.execer().ExecContext(ctx, query, userID, idTypeID, consentID, agreed)
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ShortDecisions(ctx context.Context, queries []models.ShortQuery) ([]models.ShortDecision, error) {
	// One row per query, resolved individually: each pair may name a
	// different user so there is no useful batch key.
	query := `
		SELECT c.id, m.user_id, m.id_type_id,
		       CASE
		           WHEN d.id IS NOT NULL THEN d.is_agreed
		           WHEN ct.default_opt_in THEN TRUE
		           ELSE NULL
		       END
		FROM consents c
		JOIN consent_types ct ON ct.id = c.consent_type_id
		JOIN master_ids m ON m.user_id = $2 AND m.id_type_id = $3
		LEFT JOIN user_consents d ON d.master_id = m.id AND d.consent_id = c.id
		WHERE c.id = $1
	`
	var results []models.ShortDecision
	for _, q := range queries {
		var short models.ShortDecision
		var agreed sql.NullBool
		err := s.execer().QueryRowContext(ctx, query, q.ConsentID, q.UserID, q.IDTypeID).
			Scan(&short.ConsentID, &short.UserID, &short.IDTypeID, &agreed)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("read short decision: %w", err)
		}
		if agreed.Valid {
			short.IsAgreed = &agreed.Bool
		}
		results = append(results, short)
	}
	return results, nil
}

func (s *PostgresStore) UpdateLastSeen(ctx context.Context, decisionIDs []int) error {
	if len(decisionIDs) == 0 {
		return nil
	}
	query := `UPDATE user_consents SET last_seen_date = NOW() WHERE id = ANY($1)`
	if _, err := s.execer().ExecContext(ctx, query, decisionIDs); err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByMaster(ctx context.Context, masterID uuid.UUID) error {
	query := `DELETE FROM user_consents WHERE master_id = $1`
	if _, err := s.execer().ExecContext(ctx, query, masterID); err != nil {
		return fmt.Errorf("delete decisions: %w", err)
	}
	return nil
}
