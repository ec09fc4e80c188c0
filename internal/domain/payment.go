package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusCancelled = "cancelled"
)

const (
	PaymentTypeInstallment = "installment"
	PaymentTypeDirect      = "direct"
)

const PaymentMethodBankTransfer = "bank_transfer"

// Payment is a confirmed money event
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	QuotationID   *uuid.UUID      `json:"quotation_id,omitempty" db:"quotation_id"`
	ContractID    *uuid.UUID      `json:"contract_id,omitempty" db:"contract_id"`
	CustomerID    uuid.UUID       `json:"customer_id" db:"customer_id"`
	PaymentType   string          `json:"payment_type" db:"payment_type"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Reference     *string         `json:"reference,omitempty" db:"reference"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type RecordPaymentRequest struct {
	CustomerID    uuid.UUID       `json:"customer_id"`
	PaymentDate   time.Time       `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	QuotationID   *uuid.UUID      `json:"quotation_id,omitempty"`
	ContractID    *uuid.UUID      `json:"contract_id,omitempty"`
	ScheduleID    *uuid.UUID      `json:"schedule_id,omitempty"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Reference     *string         `json:"reference,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
}
