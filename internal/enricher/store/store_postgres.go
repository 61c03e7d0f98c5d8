package store

import (
	"context"
	"database/sql"
	"fmt"

	"privacy-consent/internal/enricher/models"
)

// PostgresStore reads the enrichment join from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed enrichment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ConsentRelations(ctx context.Context, decisionAuditID int64) ([]models.RelationRow, error) {
	// Inner joins drop audits whose decision row was retracted; those audits
	// are history only and are never enriched. The text join is best effort.
	query := `
		SELECT ce.id, ce.name, ce.description,
		       c.id, c.name, c.consent_type_id, c.owner_id, c.product_id,
		       a.decision_id, a.date, d.last_decision_date,
		       a.user_id, a.id_type_id, a.change_context, a.user_consent_source_id, a.is_agreed,
		       cet.language, cet.title, cet.short_text, cet.long_text,
		       m.user_id, m.id_type_id
		FROM user_consent_audit_trail a
		JOIN user_consents d ON d.id = a.decision_id
		JOIN consents c ON c.id = d.consent_id
		JOIN consent_types ct ON ct.id = c.consent_type_id
		JOIN master_ids m ON m.id = d.master_id
		JOIN consent_expressions ce ON ce.id = a.consent_expression_id
		LEFT JOIN consent_expression_texts cet
		       ON cet.consent_expression_id = ce.id AND cet.language = a.presented_language
		WHERE a.id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, decisionAuditID)
	if err != nil {
		return nil, fmt.Errorf("select consent relations: %w", err)
	}
	defer rows.Close()

	var relations []models.RelationRow
	for rows.Next() {
		var row models.RelationRow
		var (
			exprName, exprDescription          sql.NullString
			ownerID, productID                 sql.NullInt64
			lastDecisionDate                   sql.NullTime
			userID, changeContext              sql.NullString
			idTypeID, sourceID                 sql.NullInt64
			language, title, shortT, longT     sql.NullString
		)
		if err := rows.Scan(
			&row.ConsentExpressionID, &exprName, &exprDescription,
			&row.ConsentID, &row.ConsentName, &row.ConsentTypeID, &ownerID, &productID,
			&row.DecisionID, &row.DecisionAuditDate, &lastDecisionDate,
			&userID, &idTypeID, &changeContext, &sourceID, &row.IsAgreed,
			&language, &title, &shortT, &longT,
			&row.MasterUserID, &row.MasterIDTypeID,
		); err != nil {
			return nil, fmt.Errorf("scan consent relation: %w", err)
		}

		row.ConsentExpressionName = nullStr(exprName)
		row.ConsentExpressionDescription = nullStr(exprDescription)
		row.OwnerID = nullInt(ownerID)
		row.ProductID = nullInt(productID)
		if lastDecisionDate.Valid {
			t := lastDecisionDate.Time
			row.LastDecisionDate = &t
		}
		row.UserID = nullStr(userID)
		row.IDTypeID = nullInt(idTypeID)
		row.ChangeContext = nullStr(changeContext)
		row.UserConsentSourceID = nullInt(sourceID)

		// Absent text rows yield empty strings rather than dropping the
		// enrichment.
		row.PresentedLanguage = strOrEmpty(language)
		row.Title = strOrEmpty(title)
		row.ShortText = strOrEmpty(shortT)
		row.LongText = strOrEmpty(longT)

		relations = append(relations, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent relations: %w", err)
	}
	return relations, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func strOrEmpty(v sql.NullString) *string {
	s := ""
	if v.Valid {
		s = v.String
	}
	return &s
}
