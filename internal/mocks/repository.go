package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/collection-engine/internal/domain"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) List(ctx context.Context, userID uuid.UUID, filter domain.ScheduleFilter) ([]*domain.Schedule, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ListByQuotation(ctx context.Context, quotationID uuid.UUID) ([]*domain.Schedule, error) {
	args := m.Called(ctx, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) MaxScheduleNumber(ctx context.Context, userID uuid.UUID, contractID *uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, contractID)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) UpdateTermFields(ctx context.Context, id uuid.UUID, amount decimal.Decimal, dueDate time.Time, description *string, today time.Time) (*domain.Schedule, error) {
	args := m.Called(ctx, id, amount, dueDate, description, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleRepository) MarkPaidIfUnpaid(ctx context.Context, userID, id uuid.UUID, paidDate time.Time, paidAmount decimal.Decimal, paymentID *uuid.UUID) (domain.UpdateResult, error) {
	args := m.Called(ctx, userID, id, paidDate, paidAmount, paymentID)
	return args.Get(0).(domain.UpdateResult), args.Error(1)
}

func (m *MockScheduleRepository) MarkPaid(ctx context.Context, userID, id uuid.UUID, paidDate time.Time, paidAmount decimal.Decimal, paymentID *uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id, paidDate, paidAmount, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) EarliestPendingForContract(ctx context.Context, contractID uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) Update(ctx context.Context, userID, id uuid.UUID, patch domain.SchedulePatch, clearPayment bool) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id, patch, clearPayment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) DeleteUnpaid(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) MarkOverdueIfPending(ctx context.Context, userID, id uuid.UUID) (domain.UpdateResult, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(domain.UpdateResult), args.Error(1)
}

func (m *MockScheduleRepository) SweepOverdue(ctx context.Context, userID uuid.UUID, today time.Time) ([]domain.SweptSchedule, error) {
	args := m.Called(ctx, userID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SweptSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ListUsersWithDueBefore(ctx context.Context, before time.Time, statuses []string) ([]uuid.UUID, error) {
	args := m.Called(ctx, before, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockScheduleRepository) ListWithCustomerDueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.ScheduleWithCustomer, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleWithCustomer), args.Error(1)
}

func (m *MockScheduleRepository) ListForStatistics(ctx context.Context, userID uuid.UUID, from, to, today time.Time) ([]*domain.Schedule, error) {
	args := m.Called(ctx, userID, from, to, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ListReminderRows(ctx context.Context, userID uuid.UUID, until time.Time) ([]*domain.ReminderRow, error) {
	args := m.Called(ctx, userID, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReminderRow), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Contract, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

func (m *MockContractRepository) UpdateNextCollection(ctx context.Context, contractID uuid.UUID, date *time.Time, amount decimal.NullDecimal) error {
	args := m.Called(ctx, contractID, date, amount)
	return args.Error(0)
}

type MockQuotationRepository struct {
	mock.Mock
}

func (m *MockQuotationRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Quotation, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) ListTerms(ctx context.Context, quotationID uuid.UUID) ([]domain.Term, error) {
	args := m.Called(ctx, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Term), args.Error(1)
}
