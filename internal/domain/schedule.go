package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schedule statuses
const (
	ScheduleStatusPending   = "pending"
	ScheduleStatusPaid      = "paid"
	ScheduleStatusOverdue   = "overdue"
	ScheduleStatusCancelled = "cancelled"
)

// Schedule source types
const (
	SourceTypeQuotation = "quotation"
	SourceTypeManual    = "manual"
	SourceTypeContract  = "contract"
)

// Schedule represents one expected installment
type Schedule struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	UserID         uuid.UUID           `json:"user_id" db:"user_id"`
	ContractID     *uuid.UUID          `json:"contract_id,omitempty" db:"contract_id"`
	QuotationID    *uuid.UUID          `json:"quotation_id,omitempty" db:"quotation_id"`
	CustomerID     uuid.UUID           `json:"customer_id" db:"customer_id"`
	ScheduleNumber int                 `json:"schedule_number" db:"schedule_number"`
	DueDate        time.Time           `json:"due_date" db:"due_date"`
	Amount         decimal.Decimal     `json:"amount" db:"amount"`
	Currency       string              `json:"currency" db:"currency"`
	Status         string              `json:"status" db:"status"` // pending, paid, overdue, cancelled
	PaidAmount     decimal.NullDecimal `json:"paid_amount" db:"paid_amount"`
	PaidDate       *time.Time          `json:"paid_date,omitempty" db:"paid_date"`
	PaymentID      *uuid.UUID          `json:"payment_id,omitempty" db:"payment_id"`
	Description    *string             `json:"description,omitempty" db:"description"`
	Notes          *string             `json:"notes,omitempty" db:"notes"`
	SourceType     string              `json:"source_type" db:"source_type"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" db:"updated_at"`
}

// IsManual reports whether the schedule has neither a contract nor a quotation.
func (s *Schedule) IsManual() bool {
	return s.ContractID == nil && s.QuotationID == nil
}

// IsEffectivelyOverdue is the single overdue predicate used by every read path:
// an open schedule whose due date has passed. The persisted overdue status is
// only a materialization of the same rule and is never trusted on its own.
func (s *Schedule) IsEffectivelyOverdue(today time.Time) bool {
	switch s.Status {
	case ScheduleStatusPending, ScheduleStatusOverdue:
		return s.DueDate.Before(today)
	default:
		return false
	}
}

// ReopensOn reports whether moving an overdue schedule to dueDate makes it
// pending again as of today.
func (s *Schedule) ReopensOn(dueDate, today time.Time) bool {
	return s.Status == ScheduleStatusOverdue && !dueDate.Before(today)
}

// CollectedAmount is what was actually received, falling back to the scheduled amount.
func (s *Schedule) CollectedAmount() decimal.Decimal {
	if s.PaidAmount.Valid {
		return s.PaidAmount.Decimal
	}
	return s.Amount
}

// Term is a declarative installment row supplied by a quotation's payment terms
type Term struct {
	TermNumber int             `json:"term_number" db:"term_number"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	DueDate    time.Time       `json:"due_date" db:"due_date"`
	TermName   string          `json:"term_name" db:"term_name"`
}

// SchedulePatch carries the fields of an update; nil means unchanged
type SchedulePatch struct {
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Status      *string          `json:"status,omitempty"`
	PaidAmount  *decimal.Decimal `json:"paid_amount,omitempty"`
	PaidDate    *time.Time       `json:"paid_date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SchedulePatch) IsEmpty() bool {
	return p.DueDate == nil && p.Amount == nil && p.Currency == nil && p.Status == nil &&
		p.PaidAmount == nil && p.PaidDate == nil && p.Description == nil && p.Notes == nil
}

// ScheduleFilter narrows schedule listings
type ScheduleFilter struct {
	ContractID  *uuid.UUID
	QuotationID *uuid.UUID
}

// UpdateOutcome tags the result of a conditional write
type UpdateOutcome int

const (
	// OutcomeAlreadyDone means the WHERE predicate matched no row.
	OutcomeAlreadyDone UpdateOutcome = iota
	// OutcomeUpdated means this call performed the transition.
	OutcomeUpdated
)

// UpdateResult is returned by conditional updates; Schedule is set only when Updated.
type UpdateResult struct {
	Outcome  UpdateOutcome
	Schedule *Schedule
}

// Updated returns a result carrying the written row.
func Updated(s *Schedule) UpdateResult {
	return UpdateResult{Outcome: OutcomeUpdated, Schedule: s}
}

// AlreadyDone returns the empty result of a conditional update that lost.
func AlreadyDone() UpdateResult {
	return UpdateResult{Outcome: OutcomeAlreadyDone}
}

// DTOs for requests and responses

type CreateScheduleRequest struct {
	ContractID  *uuid.UUID      `json:"contract_id,omitempty"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description *string         `json:"description,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

type SyncResult struct {
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Deleted   int         `json:"deleted"`
	Schedules []*Schedule `json:"schedules"`
}

type CollectScheduleRequest struct {
	PaymentDate time.Time        `json:"payment_date"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Method      *string          `json:"method,omitempty"`
	Reference   *string          `json:"reference,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type CollectResult struct {
	Schedule *Schedule `json:"schedule"`
	Payment  *Payment  `json:"payment"`
}

// SweptSchedule is one row flipped to overdue by a sweep
type SweptSchedule struct {
	ID         uuid.UUID  `db:"id"`
	ContractID *uuid.UUID `db:"contract_id"`
}

type SweepResult struct {
	UpdatedCount int         `json:"updated_count"`
	IDs          []uuid.UUID `json:"ids"`
}
