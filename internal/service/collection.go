package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// MarkScheduleCollected records that a schedule was paid.
//
// Manual schedules only flip to paid. Linked schedules get a confirmed Payment
// through the collection saga, so concurrent callers produce exactly one
// Payment and every loser sees AlreadyPaid.
func (s *ScheduleService) MarkScheduleCollected(ctx context.Context, userID, scheduleID uuid.UUID, request *domain.CollectScheduleRequest) (*domain.CollectResult, error) {
	if request.Amount != nil && !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidInput("amount must be greater than zero")
	}

	schedule, err := s.GetSchedule(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == domain.ScheduleStatusPaid {
		return nil, customError.WrapAlreadyPaid(scheduleID.String())
	}

	paidDate := utils.DateOnly(request.PaymentDate)
	paidAmount := schedule.Amount
	if request.Amount != nil {
		paidAmount = *request.Amount
	}

	log := s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"user_id":     userID,
	})

	if schedule.IsManual() {
		result, err := s.ScheduleRepo.MarkPaidIfUnpaid(ctx, userID, schedule.ID, paidDate, paidAmount, nil)
		if err != nil {
			return nil, customError.WrapDatabaseError("mark schedule paid", err)
		}
		if result.Outcome == domain.OutcomeAlreadyDone {
			return nil, customError.WrapAlreadyPaid(scheduleID.String())
		}

		s.invalidateStatistics(ctx, userID)
		log.Info("manual schedule collected")
		return &domain.CollectResult{Schedule: result.Schedule}, nil
	}

	quotationID, err := s.canonicalQuotationID(ctx, schedule)
	if err != nil {
		return nil, err
	}

	method := domain.PaymentMethodBankTransfer
	if request.Method != nil && *request.Method != "" {
		method = *request.Method
	}

	payment := &domain.Payment{
		ID:            s.newID(),
		UserID:        userID,
		QuotationID:   quotationID,
		ContractID:    schedule.ContractID,
		CustomerID:    schedule.CustomerID,
		PaymentType:   domain.PaymentTypeInstallment,
		PaymentDate:   paidDate,
		Amount:        paidAmount,
		Currency:      schedule.Currency,
		PaymentMethod: method,
		Reference:     request.Reference,
		Notes:         request.Notes,
		Status:        domain.PaymentStatusConfirmed,
		CreatedAt:     s.now(),
	}

	saga := newCollectionSaga(s.PaymentRepo, s.ScheduleRepo, s.logger, payment)
	paid, err := saga.Execute(ctx, schedule, paidDate, paidAmount)
	if err != nil {
		return nil, err
	}

	if paid.ContractID != nil {
		s.refreshAfterWrite(ctx, *paid.ContractID)
	}
	s.invalidateStatistics(ctx, userID)

	log.WithField("payment_id", payment.ID).Info("schedule collected")
	return &domain.CollectResult{Schedule: paid, Payment: payment}, nil
}

// canonicalQuotationID prefers the quotation of the schedule's contract.
func (s *ScheduleService) canonicalQuotationID(ctx context.Context, schedule *domain.Schedule) (*uuid.UUID, error) {
	if schedule.ContractID == nil {
		return schedule.QuotationID, nil
	}

	contract, err := s.ContractRepo.GetByID(ctx, schedule.UserID, *schedule.ContractID)
	if err != nil {
		return nil, customError.WrapDatabaseError("get contract", err)
	}
	if contract != nil && contract.QuotationID != nil {
		return contract.QuotationID, nil
	}

	return schedule.QuotationID, nil
}

// RecordPayment stores a payment and applies it to a schedule.
//
// With a schedule id the schedule is marked paid without re-checking its
// status; this path serves single-writer flows that validated beforehand.
// With only a contract the earliest pending schedule of the contract is paid.
// A payment with no schedule to apply to is kept as an on-account payment.
func (s *ScheduleService) RecordPayment(ctx context.Context, userID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	if request.QuotationID == nil && request.ContractID == nil {
		return nil, customError.WrapInvalidInput("quotation_id or contract_id is required")
	}
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidInput("amount must be greater than zero")
	}

	if request.ContractID != nil {
		contract, err := s.ContractRepo.GetByID(ctx, userID, *request.ContractID)
		if err != nil {
			return nil, customError.WrapDatabaseError("get contract", err)
		}
		if contract == nil {
			return nil, customError.WrapContractNotFound(request.ContractID.String())
		}
	}

	paymentType := domain.PaymentTypeDirect
	if request.ScheduleID != nil || request.ContractID != nil {
		paymentType = domain.PaymentTypeInstallment
	}
	method := domain.PaymentMethodBankTransfer
	if request.PaymentMethod != nil && *request.PaymentMethod != "" {
		method = *request.PaymentMethod
	}

	paidDate := utils.DateOnly(request.PaymentDate)
	payment := &domain.Payment{
		ID:            s.newID(),
		UserID:        userID,
		QuotationID:   request.QuotationID,
		ContractID:    request.ContractID,
		CustomerID:    request.CustomerID,
		PaymentType:   paymentType,
		PaymentDate:   paidDate,
		Amount:        request.Amount,
		Currency:      request.Currency,
		PaymentMethod: method,
		Reference:     request.Reference,
		Notes:         request.Notes,
		Status:        domain.PaymentStatusConfirmed,
		CreatedAt:     s.now(),
	}

	if err := s.PaymentRepo.Create(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError("create payment", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"user_id":    userID,
	})

	refreshContract := request.ContractID
	switch {
	case request.ScheduleID != nil:
		paid, err := s.ScheduleRepo.MarkPaid(ctx, userID, *request.ScheduleID, paidDate, request.Amount, &payment.ID)
		if err != nil {
			s.discardPayment(ctx, payment)
			return nil, customError.WrapDatabaseError("mark schedule paid", err)
		}
		if paid == nil {
			s.discardPayment(ctx, payment)
			return nil, customError.WrapScheduleNotFound(request.ScheduleID.String())
		}
		if paid.ContractID != nil {
			refreshContract = paid.ContractID
		}
		log = log.WithField("schedule_id", paid.ID)

	case request.ContractID != nil:
		next, err := s.ScheduleRepo.EarliestPendingForContract(ctx, *request.ContractID)
		if err != nil {
			s.discardPayment(ctx, payment)
			return nil, customError.WrapDatabaseError("find next pending schedule", err)
		}
		if next == nil {
			log.WithField("contract_id", *request.ContractID).Info("no pending schedule, payment kept on account")
			break
		}
		if _, err := s.ScheduleRepo.MarkPaid(ctx, userID, next.ID, paidDate, request.Amount, &payment.ID); err != nil {
			s.discardPayment(ctx, payment)
			return nil, customError.WrapDatabaseError("mark schedule paid", err)
		}
		log = log.WithField("schedule_id", next.ID)
	}

	if refreshContract != nil {
		s.refreshAfterWrite(ctx, *refreshContract)
	}
	s.invalidateStatistics(ctx, userID)

	log.Info("payment recorded")
	return payment, nil
}

// discardPayment removes a payment that could not be linked to its schedule.
func (s *ScheduleService) discardPayment(ctx context.Context, payment *domain.Payment) {
	if err := s.PaymentRepo.Delete(context.WithoutCancel(ctx), payment.ID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"error":      err,
		}).Error("failed to delete unlinked payment")
	}
}
