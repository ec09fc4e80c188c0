package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// UpdateSchedule applies a patch to a schedule.
//
// Moving a paid schedule to any other status un-collects it: the linked
// payment is deleted before the patch is written. Linked schedules can only
// become paid through MarkScheduleCollected.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, userID, id uuid.UUID, patch domain.SchedulePatch) (*domain.Schedule, error) {
	if patch.IsEmpty() {
		return nil, customError.WrapInvalidInput("no fields to update")
	}
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return nil, customError.WrapInvalidInput("amount must be greater than zero")
	}

	current, err := s.GetSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	settingPaid := patch.Status != nil && *patch.Status == domain.ScheduleStatusPaid
	if settingPaid && current.Status != domain.ScheduleStatusPaid && !current.IsManual() {
		return nil, customError.WrapConflict("linked schedules are paid through the collect operation")
	}

	if patch.DueDate != nil {
		dueDate := utils.DateOnly(*patch.DueDate)
		patch.DueDate = &dueDate
		if patch.Status == nil && current.ReopensOn(dueDate, s.today()) {
			pending := domain.ScheduleStatusPending
			patch.Status = &pending
		}
	}
	if patch.PaidDate != nil {
		paidDate := utils.DateOnly(*patch.PaidDate)
		patch.PaidDate = &paidDate
	}

	log := s.logger.WithFields(logrus.Fields{
		"schedule_id": id,
		"user_id":     userID,
	})

	reversing := current.Status == domain.ScheduleStatusPaid && patch.Status != nil && !settingPaid
	if reversing && current.PaymentID != nil {
		if err := s.PaymentRepo.Delete(ctx, *current.PaymentID); err != nil {
			return nil, customError.WrapDatabaseError("delete payment", err)
		}
		log.WithField("payment_id", *current.PaymentID).Info("collection reversed, payment deleted")
	}

	updated, err := s.ScheduleRepo.Update(ctx, userID, id, patch, reversing)
	if err != nil {
		return nil, customError.WrapDatabaseError("update schedule", err)
	}
	if updated == nil {
		return nil, customError.WrapScheduleNotFound(id.String())
	}

	if updated.ContractID != nil {
		s.refreshAfterWrite(ctx, *updated.ContractID)
	}
	s.invalidateStatistics(ctx, userID)

	return updated, nil
}

// DeleteSchedule hard-deletes a schedule that has not been paid.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.ScheduleRepo.DeleteUnpaid(ctx, userID, id)
	if err != nil {
		return customError.WrapDatabaseError("delete schedule", err)
	}

	if deleted == nil {
		existing, err := s.ScheduleRepo.GetByID(ctx, userID, id)
		if err != nil {
			return customError.WrapDatabaseError("get schedule", err)
		}
		if existing == nil {
			return customError.WrapScheduleNotFound(id.String())
		}
		return customError.WrapCannotDeletePaid(id.String())
	}

	if deleted.ContractID != nil {
		s.refreshAfterWrite(ctx, *deleted.ContractID)
	}
	s.invalidateStatistics(ctx, userID)

	s.logger.WithFields(logrus.Fields{
		"schedule_id": id,
		"user_id":     userID,
	}).Info("schedule deleted")

	return nil
}
