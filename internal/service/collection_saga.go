package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// SagaState is the lifecycle of one collection attempt.
type SagaState int

const (
	SagaStarted SagaState = iota
	SagaCommitted
	SagaRolledBack
)

func (s SagaState) String() string {
	switch s {
	case SagaStarted:
		return "started"
	case SagaCommitted:
		return "committed"
	case SagaRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// collectionSaga creates the payment first and then races for the schedule's
// paid transition. Losing the race, or a failed transition that did not land,
// goes through rollback, which is the only place the payment is removed. A
// payment already linked to the schedule is never removed.
type collectionSaga struct {
	payments  repository.PaymentRepository
	schedules repository.ScheduleRepository
	logger    *logrus.Logger

	payment *domain.Payment
	state   SagaState
}

func newCollectionSaga(payments repository.PaymentRepository, schedules repository.ScheduleRepository, logger *logrus.Logger, payment *domain.Payment) *collectionSaga {
	return &collectionSaga{
		payments:  payments,
		schedules: schedules,
		logger:    logger,
		payment:   payment,
		state:     SagaStarted,
	}
}

func (c *collectionSaga) State() SagaState {
	return c.state
}

// Execute runs the saga to Committed or RolledBack and returns the paid schedule.
func (c *collectionSaga) Execute(ctx context.Context, schedule *domain.Schedule, paidDate time.Time, paidAmount decimal.Decimal) (*domain.Schedule, error) {
	if err := c.payments.Create(ctx, c.payment); err != nil {
		c.state = SagaRolledBack
		return nil, customError.WrapDatabaseError("create payment", err)
	}

	result, err := c.schedules.MarkPaidIfUnpaid(ctx, schedule.UserID, schedule.ID, paidDate, paidAmount, &c.payment.ID)
	if err != nil {
		return c.recover(ctx, schedule, err)
	}

	if result.Outcome == domain.OutcomeAlreadyDone {
		c.logger.WithFields(logrus.Fields{
			"schedule_id": schedule.ID,
			"payment_id":  c.payment.ID,
		}).Warn("collection lost race, schedule already paid")
		c.rollback(ctx, schedule)
		return nil, customError.WrapAlreadyPaid(schedule.ID.String())
	}

	c.state = SagaCommitted
	return result.Schedule, nil
}

// recover decides the outcome of a paid transition that returned an error.
// The write may have committed with the reply lost, so the schedule is read
// back first. When that read fails too the payment is kept and the saga stays
// Started; the log line carries the ids needed to reconcile it.
func (c *collectionSaga) recover(ctx context.Context, schedule *domain.Schedule, writeErr error) (*domain.Schedule, error) {
	fields := logrus.Fields{
		"schedule_id": schedule.ID,
		"payment_id":  c.payment.ID,
		"error":       writeErr,
	}

	current, err := c.schedules.GetByID(context.WithoutCancel(ctx), schedule.UserID, schedule.ID)
	if err != nil {
		fields["read_error"] = err
		c.logger.WithFields(fields).Error("collection outcome unknown, payment kept for reconciliation")
		return nil, customError.WrapDatabaseError("mark schedule paid", writeErr)
	}

	if current != nil && current.PaymentID != nil && *current.PaymentID == c.payment.ID {
		c.logger.WithFields(fields).Warn("paid transition reported an error but committed")
		c.state = SagaCommitted
		return current, nil
	}

	c.rollback(ctx, schedule)
	return nil, customError.WrapDatabaseError("mark schedule paid", writeErr)
}

// rollback deletes the speculative payment. It runs detached from the caller's
// cancellation so a dropped request cannot leave the payment behind.
func (c *collectionSaga) rollback(ctx context.Context, schedule *domain.Schedule) {
	if err := c.payments.Delete(context.WithoutCancel(ctx), c.payment.ID); err != nil {
		c.logger.WithFields(logrus.Fields{
			"schedule_id": schedule.ID,
			"payment_id":  c.payment.ID,
			"error":       err,
		}).Error("failed to delete compensated payment")
	}
	c.state = SagaRolledBack
}
