//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"privacy-consent/internal/platform/database"
	"privacy-consent/pkg/testutil"
)

// PostgresContainer wraps a testcontainers Postgres instance with the module
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// startPostgres starts a Postgres container and applies all migrations.
// Container cleanup is left to Ryuk since the instance is shared across
// suites in the same test process.
func startPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("consent_test"),
		postgres.WithUsername("consent"),
		postgres.WithPassword("consent_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("run postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := database.Migrate(dsn); err != nil {
		_ = db.Close()               //nolint:errcheck
		_ = container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}, nil
}

// TruncateAll resets every mutable table between test suites. The order
// respects foreign keys.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	tables := []string{
		"user_consent_audit_trail",
		"user_consents",
		"master_ids",
		"consent_expression_texts",
		"consent_expressions",
		"consents",
		"consent_types",
		"user_consent_sources",
	}
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedCatalog inserts the canonical consent catalog used by the test suites:
// one consent type, one consent owned by the extended-policy data owner, one
// expression with an English text row, and one decision source.
func (p *PostgresContainer) SeedCatalog(ctx context.Context, t testing.TB) {
	t.Helper()

	stmts := []struct {
		query string
		args  []any
	}{
		{
			`INSERT INTO consent_types (id, name, default_opt_in) VALUES ($1, $2, FALSE)`,
			[]any{testutil.ConsentTypeID, "marketing"},
		},
		{
			`INSERT INTO consents (id, name, consent_type_id, owner_id) VALUES ($1, $2, $3, $4)`,
			[]any{testutil.ConsentID, "Newsletter", testutil.ConsentTypeID, testutil.ExtendedOwnerID},
		},
		{
			`INSERT INTO consent_expressions (id, consent_id, name, description) VALUES ($1, $2, $3, $4)`,
			[]any{testutil.ConsentExpressionID, testutil.ConsentID, "newsletter-optin", "Newsletter opt-in"},
		},
		{
			`INSERT INTO consent_expression_texts (consent_expression_id, language, title, short_text, long_text)
			 VALUES ($1, $2, $3, $4, $5)`,
			[]any{testutil.ConsentExpressionID, testutil.Language, "Newsletter", "Receive our newsletter", "Receive our newsletter by email."},
		},
		{
			`INSERT INTO user_consent_sources (id, name) VALUES ($1, $2)`,
			[]any{testutil.SourceID, "web"},
		},
	}

	for _, s := range stmts {
		if _, err := p.DB.ExecContext(ctx, s.query, s.args...); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
}
