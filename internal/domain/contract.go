package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ContractStatusActive = "active"
)

// Contract is the slice of an external contract this engine reads and writes
type Contract struct {
	ID                   uuid.UUID           `json:"id" db:"id"`
	UserID               uuid.UUID           `json:"user_id" db:"user_id"`
	QuotationID          *uuid.UUID          `json:"quotation_id,omitempty" db:"quotation_id"`
	CustomerID           uuid.UUID           `json:"customer_id" db:"customer_id"`
	Status               string              `json:"status" db:"status"`
	NextCollectionDate   *time.Time          `json:"next_collection_date,omitempty" db:"next_collection_date"`
	NextCollectionAmount decimal.NullDecimal `json:"next_collection_amount" db:"next_collection_amount"`
}

// Quotation is the slice of an external quotation needed to stamp new schedules
type Quotation struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	CustomerID uuid.UUID `json:"customer_id" db:"customer_id"`
	Currency   string    `json:"currency" db:"currency"`
}
