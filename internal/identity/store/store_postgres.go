package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"privacy-consent/internal/identity/models"
	"privacy-consent/internal/sentinel"
)

// PostgresStore persists identity bindings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed identity store bound to a transaction.
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

func (s *PostgresStore) ResolveOrCreate(ctx context.Context, userID string, idTypeID int) (uuid.UUID, error) {
	// Insert-first keeps the common first-write path to one round trip.
	// ON CONFLICT DO NOTHING returns no row for the loser of a race, which
	// then falls through to the lookup below.
	query := `
		INSERT INTO master_ids (id, user_id, id_type_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, id_type_id) DO NOTHING
		RETURNING id
	`
	var masterID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query, uuid.New(), userID, idTypeID).Scan(&masterID)
	if err == nil {
		return masterID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("create master id: %w", err)
	}

	identity, err := s.Lookup(ctx, userID, idTypeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup after conflict: %w", err)
	}
	return identity.MasterID, nil
}

func (s *PostgresStore) Lookup(ctx context.Context, userID string, idTypeID int) (models.Identity, error) {
	query := `
		SELECT id, user_id, id_type_id
		FROM master_ids
		WHERE user_id = $1 AND id_type_id = $2
	`
	var identity models.Identity
	err := s.execer().QueryRowContext(ctx, query, userID, idTypeID).
		Scan(&identity.MasterID, &identity.UserID, &identity.IDTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Identity{}, sentinel.ErrNotFound
		}
		return models.Identity{}, fmt.Errorf("lookup master id: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) Aliases(ctx context.Context, masterID uuid.UUID) ([]models.Alias, error) {
	query := `
		SELECT user_id, id_type_id
		FROM master_ids
		WHERE id = $1
	`
	rows, err := s.execer().QueryContext(ctx, query, masterID)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []models.Alias
	for rows.Next() {
		var alias models.Alias
		if err := rows.Scan(&alias.UserID, &alias.IDTypeID); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return aliases, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string, idTypeID int) error {
	query := `DELETE FROM master_ids WHERE user_id = $1 AND id_type_id = $2`
	if _, err := s.execer().ExecContext(ctx, query, userID, idTypeID); err != nil {
		return fmt.Errorf("delete master id: %w", err)
	}
	return nil
}
