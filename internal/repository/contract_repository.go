package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
)

type contractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Contract, error) {
	query := `
		SELECT id, user_id, quotation_id, customer_id, status, next_collection_date, next_collection_amount
		FROM contracts
		WHERE id = $1 AND user_id = $2
	`

	var contract domain.Contract
	err := r.db.GetContext(ctx, &contract, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &contract, nil
}

func (r *contractRepository) UpdateNextCollection(ctx context.Context, contractID uuid.UUID, date *time.Time, amount decimal.NullDecimal) error {
	query := `
		UPDATE contracts
		SET next_collection_date = $2, next_collection_amount = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, contractID, date, amount, time.Now())
	return err
}
