package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// SyncScheduleFromQuotation loads the quotation's current terms and reconciles them.
func (s *ScheduleService) SyncScheduleFromQuotation(ctx context.Context, userID, quotationID uuid.UUID) (*domain.SyncResult, error) {
	quotation, err := s.loadQuotation(ctx, userID, quotationID)
	if err != nil {
		return nil, err
	}

	terms, err := s.QuotationRepo.ListTerms(ctx, quotationID)
	if err != nil {
		return nil, customError.WrapDatabaseError("list quotation terms", err)
	}

	return s.syncTerms(ctx, quotation, terms)
}

// SyncScheduleFromTerms reconciles a quotation's schedules against the full term set.
//
// Terms are matched to schedules by term_number. A changed amount, due date or
// name updates the schedule, a new number inserts a pending schedule, and a
// pending schedule whose number disappeared is deleted. Paid schedules are
// left untouched and only pending ones are ever deleted.
func (s *ScheduleService) SyncScheduleFromTerms(ctx context.Context, userID, quotationID uuid.UUID, terms []domain.Term) (*domain.SyncResult, error) {
	quotation, err := s.loadQuotation(ctx, userID, quotationID)
	if err != nil {
		return nil, err
	}

	return s.syncTerms(ctx, quotation, terms)
}

func (s *ScheduleService) loadQuotation(ctx context.Context, userID, quotationID uuid.UUID) (*domain.Quotation, error) {
	quotation, err := s.QuotationRepo.GetByID(ctx, userID, quotationID)
	if err != nil {
		return nil, customError.WrapDatabaseError("get quotation", err)
	}
	if quotation == nil {
		return nil, customError.WrapQuotationNotFound(quotationID.String())
	}

	return quotation, nil
}

func (s *ScheduleService) syncTerms(ctx context.Context, quotation *domain.Quotation, terms []domain.Term) (*domain.SyncResult, error) {
	wanted := make(map[int]domain.Term, len(terms))
	for _, term := range terms {
		if term.TermNumber <= 0 {
			return nil, customError.WrapInvalidInput("term_number must be greater than zero")
		}
		if _, dup := wanted[term.TermNumber]; dup {
			return nil, customError.WrapInvalidInput(fmt.Sprintf("duplicate term_number %d", term.TermNumber))
		}
		wanted[term.TermNumber] = term
	}

	existing, err := s.ScheduleRepo.ListByQuotation(ctx, quotation.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError("list quotation schedules", err)
	}

	byNumber := make(map[int]*domain.Schedule, len(existing))
	for _, schedule := range existing {
		byNumber[schedule.ScheduleNumber] = schedule
	}

	log := s.logger.WithFields(logrus.Fields{
		"quotation_id": quotation.ID,
		"user_id":      quotation.UserID,
	})
	result := &domain.SyncResult{}
	today := s.today()

	for _, term := range terms {
		dueDate := utils.DateOnly(term.DueDate)
		description := utils.StringPtr(term.TermName)

		current, ok := byNumber[term.TermNumber]
		if ok {
			if current.Status == domain.ScheduleStatusPaid || !termChanged(current, term) {
				continue
			}
			if _, err := s.ScheduleRepo.UpdateTermFields(ctx, current.ID, term.Amount, dueDate, description, today); err != nil {
				return nil, customError.WrapDatabaseError("update schedule", err)
			}
			result.Updated++
			continue
		}

		now := s.now()
		quotationID := quotation.ID
		schedule := &domain.Schedule{
			ID:             s.newID(),
			UserID:         quotation.UserID,
			QuotationID:    &quotationID,
			CustomerID:     quotation.CustomerID,
			ScheduleNumber: term.TermNumber,
			DueDate:        dueDate,
			Amount:         term.Amount,
			Currency:       quotation.Currency,
			Status:         domain.ScheduleStatusPending,
			Description:    description,
			SourceType:     domain.SourceTypeQuotation,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.ScheduleRepo.Create(ctx, schedule); err != nil {
			if repository.IsUniqueViolation(err) {
				// a concurrent sync inserted the same term first
				log.WithField("schedule_number", term.TermNumber).Warn("schedule already created by concurrent sync")
				continue
			}
			return nil, customError.WrapDatabaseError("create schedule", err)
		}
		result.Created++
	}

	for _, schedule := range existing {
		if _, keep := wanted[schedule.ScheduleNumber]; keep {
			continue
		}
		if schedule.Status != domain.ScheduleStatusPending {
			continue
		}
		deleted, err := s.ScheduleRepo.DeleteIfPending(ctx, schedule.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError("delete schedule", err)
		}
		if deleted {
			result.Deleted++
		}
	}

	schedules, err := s.ScheduleRepo.ListByQuotation(ctx, quotation.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError("list quotation schedules", err)
	}
	if schedules == nil {
		schedules = []*domain.Schedule{}
	}
	result.Schedules = schedules

	if result.Created+result.Updated+result.Deleted > 0 {
		s.invalidateStatistics(ctx, quotation.UserID)
		log.WithFields(logrus.Fields{
			"created": result.Created,
			"updated": result.Updated,
			"deleted": result.Deleted,
		}).Info("schedules synchronized")
	}

	return result, nil
}

func termChanged(schedule *domain.Schedule, term domain.Term) bool {
	return !schedule.Amount.Equal(term.Amount) ||
		!utils.SameDate(schedule.DueDate, term.DueDate) ||
		utils.StringValue(schedule.Description) != term.TermName
}
