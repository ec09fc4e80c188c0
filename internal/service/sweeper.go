package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// MarkOverdue moves one pending schedule to overdue. It returns nil when the
// schedule is missing or no longer pending.
func (s *ScheduleService) MarkOverdue(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	result, err := s.ScheduleRepo.MarkOverdueIfPending(ctx, userID, id)
	if err != nil {
		return nil, customError.WrapDatabaseError("mark schedule overdue", err)
	}
	if result.Outcome == domain.OutcomeAlreadyDone {
		return nil, nil
	}

	if result.Schedule.ContractID != nil {
		s.refreshAfterWrite(ctx, *result.Schedule.ContractID)
	}
	s.invalidateStatistics(ctx, userID)
	return result.Schedule, nil
}

// SweepOverdue materializes the overdue status for every pending schedule of
// the user due before today. Reads already treat those schedules as overdue.
// Each affected contract gets its next collection refreshed once.
func (s *ScheduleService) SweepOverdue(ctx context.Context, userID uuid.UUID) (*domain.SweepResult, error) {
	swept, err := s.ScheduleRepo.SweepOverdue(ctx, userID, s.today())
	if err != nil {
		return nil, customError.WrapDatabaseError("sweep overdue schedules", err)
	}

	ids := make([]uuid.UUID, 0, len(swept))
	refreshed := make(map[uuid.UUID]struct{})
	for _, row := range swept {
		ids = append(ids, row.ID)
		if row.ContractID == nil {
			continue
		}
		if _, done := refreshed[*row.ContractID]; done {
			continue
		}
		refreshed[*row.ContractID] = struct{}{}
		s.refreshAfterWrite(ctx, *row.ContractID)
	}

	if len(ids) > 0 {
		s.invalidateStatistics(ctx, userID)
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"count":   len(ids),
		}).Info("schedules marked overdue")
	}

	return &domain.SweepResult{UpdatedCount: len(ids), IDs: ids}, nil
}

// SweepAllUsers runs SweepOverdue for every user with stale pending schedules.
// One user's failure does not stop the others; failures are joined.
func (s *ScheduleService) SweepAllUsers(ctx context.Context) (int, error) {
	users, err := s.ScheduleRepo.ListUsersWithDueBefore(ctx, s.today(), []string{domain.ScheduleStatusPending})
	if err != nil {
		return 0, customError.WrapDatabaseError("list users to sweep", err)
	}

	total := 0
	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := s.SweepOverdue(ctx, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		total += result.UpdatedCount
	}

	return total, errors.Join(errs...)
}
