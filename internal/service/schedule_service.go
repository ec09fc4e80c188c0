package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// ScheduleService owns every write path over payment schedules: term
// synchronization, collection, patch/delete, overdue transitions and the
// contract next-collection cache.
type ScheduleService struct {
	ScheduleRepo  repository.ScheduleRepository
	PaymentRepo   repository.PaymentRepository
	ContractRepo  repository.ContractRepository
	QuotationRepo repository.QuotationRepository

	cache  *cache.StatisticsCache
	logger *logrus.Logger
	loc    *time.Location
	now    func() time.Time
	newID  func() uuid.UUID
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	paymentRepo repository.PaymentRepository,
	contractRepo repository.ContractRepository,
	quotationRepo repository.QuotationRepository,
	statsCache *cache.StatisticsCache,
	logger *logrus.Logger,
	loc *time.Location,
) *ScheduleService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleService{
		ScheduleRepo:  scheduleRepo,
		PaymentRepo:   paymentRepo,
		ContractRepo:  contractRepo,
		QuotationRepo: quotationRepo,
		cache:         statsCache,
		logger:        logger,
		loc:           loc,
		now:           time.Now,
		newID:         uuid.New,
	}
}

func (s *ScheduleService) today() time.Time {
	return utils.Today(s.now(), s.loc)
}

// invalidateStatistics drops the user's cached aggregates. Cache trouble never
// fails a write that already reached the store.
func (s *ScheduleService) invalidateStatistics(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("failed to invalidate statistics cache")
	}
}

// GetSchedule returns a schedule owned by userID
func (s *ScheduleService) GetSchedule(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	schedule, err := s.ScheduleRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, customError.WrapDatabaseError("get schedule", err)
	}
	if schedule == nil {
		return nil, customError.WrapScheduleNotFound(id.String())
	}

	return schedule, nil
}

// ListSchedules returns the user's schedules ordered by schedule number
func (s *ScheduleService) ListSchedules(ctx context.Context, userID uuid.UUID, filter domain.ScheduleFilter) ([]*domain.Schedule, error) {
	schedules, err := s.ScheduleRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError("list schedules", err)
	}
	if schedules == nil {
		schedules = []*domain.Schedule{}
	}

	return schedules, nil
}

// CreateSchedule inserts a pending schedule outside of any quotation. Numbering
// continues from the highest number of the same contract, or of the user's
// manual schedules when no contract is given.
func (s *ScheduleService) CreateSchedule(ctx context.Context, userID uuid.UUID, request *domain.CreateScheduleRequest) (*domain.Schedule, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidInput("amount must be greater than zero")
	}

	sourceType := domain.SourceTypeManual
	if request.ContractID != nil {
		contract, err := s.ContractRepo.GetByID(ctx, userID, *request.ContractID)
		if err != nil {
			return nil, customError.WrapDatabaseError("get contract", err)
		}
		if contract == nil {
			return nil, customError.WrapContractNotFound(request.ContractID.String())
		}
		sourceType = domain.SourceTypeContract
	}

	maxNumber, err := s.ScheduleRepo.MaxScheduleNumber(ctx, userID, request.ContractID)
	if err != nil {
		return nil, customError.WrapDatabaseError("get max schedule number", err)
	}

	now := s.now()
	schedule := &domain.Schedule{
		ID:             s.newID(),
		UserID:         userID,
		ContractID:     request.ContractID,
		CustomerID:     request.CustomerID,
		ScheduleNumber: maxNumber + 1,
		DueDate:        utils.DateOnly(request.DueDate),
		Amount:         request.Amount,
		Currency:       request.Currency,
		Status:         domain.ScheduleStatusPending,
		Description:    request.Description,
		Notes:          request.Notes,
		SourceType:     sourceType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.ScheduleRepo.Create(ctx, schedule); err != nil {
		return nil, customError.WrapDatabaseError("create schedule", err)
	}

	if schedule.ContractID != nil {
		s.refreshAfterWrite(ctx, *schedule.ContractID)
	}
	s.invalidateStatistics(ctx, userID)

	return schedule, nil
}
