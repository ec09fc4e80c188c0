package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
)

// Lookups return (nil, nil) when the row does not exist in the caller's scope.

// ScheduleRepository defines the interface for schedule data operations
type ScheduleRepository interface {
	// Create inserts a new schedule row
	Create(ctx context.Context, schedule *domain.Schedule) error

	// GetByID retrieves a schedule owned by userID
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error)

	// List retrieves a user's schedules narrowed by filter, ordered by schedule number
	List(ctx context.Context, userID uuid.UUID, filter domain.ScheduleFilter) ([]*domain.Schedule, error)

	// ListByQuotation retrieves every schedule derived from a quotation
	ListByQuotation(ctx context.Context, quotationID uuid.UUID) ([]*domain.Schedule, error)

	// MaxScheduleNumber returns the highest schedule number of a contract chain, or of
	// the user's manual schedules when contractID is nil
	MaxScheduleNumber(ctx context.Context, userID uuid.UUID, contractID *uuid.UUID) (int, error)

	// UpdateTermFields rewrites the term-derived fields of a schedule. An overdue
	// schedule moved to today or later returns to pending.
	UpdateTermFields(ctx context.Context, id uuid.UUID, amount decimal.Decimal, dueDate time.Time, description *string, today time.Time) (*domain.Schedule, error)

	// DeleteIfPending deletes a schedule only while it is still pending
	DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkPaidIfUnpaid is the conditional paid transition (WHERE status <> 'paid')
	MarkPaidIfUnpaid(ctx context.Context, userID, id uuid.UUID, paidDate time.Time, paidAmount decimal.Decimal, paymentID *uuid.UUID) (domain.UpdateResult, error)

	// MarkPaid sets the paid fields without re-asserting the current status
	MarkPaid(ctx context.Context, userID, id uuid.UUID, paidDate time.Time, paidAmount decimal.Decimal, paymentID *uuid.UUID) (*domain.Schedule, error)

	// EarliestPendingForContract returns the pending schedule with the earliest due date
	EarliestPendingForContract(ctx context.Context, contractID uuid.UUID) (*domain.Schedule, error)

	// Update applies a patch; clearPayment also nulls payment_id and any paid field the patch leaves unset
	Update(ctx context.Context, userID, id uuid.UUID, patch domain.SchedulePatch, clearPayment bool) (*domain.Schedule, error)

	// DeleteUnpaid deletes a schedule whose status is not paid and returns the deleted row
	DeleteUnpaid(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error)

	// MarkOverdueIfPending is the conditional pending -> overdue transition
	MarkOverdueIfPending(ctx context.Context, userID, id uuid.UUID) (domain.UpdateResult, error)

	// SweepOverdue moves every pending schedule due before today to overdue
	SweepOverdue(ctx context.Context, userID uuid.UUID, today time.Time) ([]domain.SweptSchedule, error)

	// ListUsersWithDueBefore returns owners of schedules in one of statuses due before the given date
	ListUsersWithDueBefore(ctx context.Context, before time.Time, statuses []string) ([]uuid.UUID, error)

	// ListWithCustomerDueBetween returns schedules due in [from, to) joined with customer names
	ListWithCustomerDueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.ScheduleWithCustomer, error)

	// ListForStatistics returns schedules due or paid in [from, to) plus every
	// outstanding schedule due before today
	ListForStatistics(ctx context.Context, userID uuid.UUID, from, to, today time.Time) ([]*domain.Schedule, error)

	// ListReminderRows returns, per active contract, the earliest outstanding schedule due on or before until
	ListReminderRows(ctx context.Context, userID uuid.UUID, until time.Time) ([]*domain.ReminderRow, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// Delete removes a payment; deleting a missing row is not an error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContractRepository covers the contract columns this engine reads and writes
type ContractRepository interface {
	// GetByID retrieves a contract owned by userID
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Contract, error)

	// UpdateNextCollection writes the cached next collection; nil date clears both fields
	UpdateNextCollection(ctx context.Context, contractID uuid.UUID, date *time.Time, amount decimal.NullDecimal) error
}

// QuotationRepository reads quotations and their payment terms
type QuotationRepository interface {
	// GetByID retrieves a quotation owned by userID
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Quotation, error)

	// ListTerms returns the quotation's payment terms ordered by term number
	ListTerms(ctx context.Context, quotationID uuid.UUID) ([]domain.Term, error)
}
