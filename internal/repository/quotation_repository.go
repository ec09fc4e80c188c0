package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/collection-engine/internal/domain"
)

type quotationRepository struct {
	db *sqlx.DB
}

func NewQuotationRepository(db *sqlx.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Quotation, error) {
	query := `
		SELECT id, user_id, customer_id, currency
		FROM quotations
		WHERE id = $1 AND user_id = $2
	`

	var quotation domain.Quotation
	err := r.db.GetContext(ctx, &quotation, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &quotation, nil
}

func (r *quotationRepository) ListTerms(ctx context.Context, quotationID uuid.UUID) ([]domain.Term, error) {
	query := `
		SELECT term_number, amount, due_date, COALESCE(term_name, '') AS term_name
		FROM quotation_terms
		WHERE quotation_id = $1
		ORDER BY term_number
	`

	var terms []domain.Term
	if err := r.db.SelectContext(ctx, &terms, query, quotationID); err != nil {
		return nil, err
	}

	return terms, nil
}
