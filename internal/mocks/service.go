package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/collection-engine/internal/domain"
)

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) GetSchedule(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) ListSchedules(ctx context.Context, userID uuid.UUID, filter domain.ScheduleFilter) ([]*domain.Schedule, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) CreateSchedule(ctx context.Context, userID uuid.UUID, request *domain.CreateScheduleRequest) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) SyncScheduleFromTerms(ctx context.Context, userID, quotationID uuid.UUID, terms []domain.Term) (*domain.SyncResult, error) {
	args := m.Called(ctx, userID, quotationID, terms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncResult), args.Error(1)
}

func (m *MockScheduleService) SyncScheduleFromQuotation(ctx context.Context, userID, quotationID uuid.UUID) (*domain.SyncResult, error) {
	args := m.Called(ctx, userID, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncResult), args.Error(1)
}

func (m *MockScheduleService) MarkScheduleCollected(ctx context.Context, userID, scheduleID uuid.UUID, request *domain.CollectScheduleRequest) (*domain.CollectResult, error) {
	args := m.Called(ctx, userID, scheduleID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectResult), args.Error(1)
}

func (m *MockScheduleService) RecordPayment(ctx context.Context, userID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, userID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockScheduleService) UpdateSchedule(ctx context.Context, userID, id uuid.UUID, patch domain.SchedulePatch) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) DeleteSchedule(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockScheduleService) MarkOverdue(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) SweepOverdue(ctx context.Context, userID uuid.UUID) (*domain.SweepResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}

type MockStatisticsService struct {
	mock.Mock
}

func (m *MockStatisticsService) GetStatistics(ctx context.Context, userID uuid.UUID) (*domain.Statistics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

func (m *MockStatisticsService) GetMonthReceivables(ctx context.Context, userID uuid.UUID, month time.Time) (*domain.MonthReceivables, error) {
	args := m.Called(ctx, userID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MonthReceivables), args.Error(1)
}

func (m *MockStatisticsService) GetReminders(ctx context.Context, userID uuid.UUID, daysAhead int) ([]domain.Reminder, error) {
	args := m.Called(ctx, userID, daysAhead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reminder), args.Error(1)
}
