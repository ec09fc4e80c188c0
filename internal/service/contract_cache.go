package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// RefreshContractCache writes the contract's earliest pending schedule into
// next_collection_date/amount, or clears both when nothing is pending. It is a
// plain read-then-write; the cached value may briefly lag concurrent collections.
func (s *ScheduleService) RefreshContractCache(ctx context.Context, contractID uuid.UUID) error {
	next, err := s.ScheduleRepo.EarliestPendingForContract(ctx, contractID)
	if err != nil {
		return customError.WrapDatabaseError("find next pending schedule", err)
	}

	if next == nil {
		if err := s.ContractRepo.UpdateNextCollection(ctx, contractID, nil, decimal.NullDecimal{}); err != nil {
			return customError.WrapDatabaseError("clear next collection", err)
		}
		return nil
	}

	dueDate := next.DueDate
	amount := decimal.NewNullDecimal(next.Amount)
	if err := s.ContractRepo.UpdateNextCollection(ctx, contractID, &dueDate, amount); err != nil {
		return customError.WrapDatabaseError("update next collection", err)
	}

	return nil
}

// refreshAfterWrite runs the cache refresh after a committed write. The write
// stands even if the refresh fails, so the failure is only logged.
func (s *ScheduleService) refreshAfterWrite(ctx context.Context, contractID uuid.UUID) {
	if err := s.RefreshContractCache(ctx, contractID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"contract_id": contractID,
			"error":       err,
		}).Error("failed to refresh contract next collection")
	}
}
