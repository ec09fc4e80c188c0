package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/response"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// ScheduleService is the write side consumed by the HTTP layer
type ScheduleService interface {
	GetSchedule(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error)
	ListSchedules(ctx context.Context, userID uuid.UUID, filter domain.ScheduleFilter) ([]*domain.Schedule, error)
	CreateSchedule(ctx context.Context, userID uuid.UUID, request *domain.CreateScheduleRequest) (*domain.Schedule, error)
	SyncScheduleFromTerms(ctx context.Context, userID, quotationID uuid.UUID, terms []domain.Term) (*domain.SyncResult, error)
	SyncScheduleFromQuotation(ctx context.Context, userID, quotationID uuid.UUID) (*domain.SyncResult, error)
	MarkScheduleCollected(ctx context.Context, userID, scheduleID uuid.UUID, request *domain.CollectScheduleRequest) (*domain.CollectResult, error)
	RecordPayment(ctx context.Context, userID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error)
	UpdateSchedule(ctx context.Context, userID, id uuid.UUID, patch domain.SchedulePatch) (*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, userID, id uuid.UUID) error
	MarkOverdue(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error)
	SweepOverdue(ctx context.Context, userID uuid.UUID) (*domain.SweepResult, error)
}

// StatisticsService is the read side consumed by the HTTP layer
type StatisticsService interface {
	GetStatistics(ctx context.Context, userID uuid.UUID) (*domain.Statistics, error)
	GetMonthReceivables(ctx context.Context, userID uuid.UUID, month time.Time) (*domain.MonthReceivables, error)
	GetReminders(ctx context.Context, userID uuid.UUID, daysAhead int) ([]domain.Reminder, error)
}

type ScheduleHandler struct {
	schedules           ScheduleService
	statistics          StatisticsService
	validator           *validator.Validate
	logger              *logrus.Logger
	defaultReminderDays int
}

func NewScheduleHandler(schedules ScheduleService, statistics StatisticsService, logger *logrus.Logger, defaultReminderDays int) *ScheduleHandler {
	return &ScheduleHandler{
		schedules:           schedules,
		statistics:          statistics,
		validator:           validator.New(),
		logger:              logger,
		defaultReminderDays: defaultReminderDays,
	}
}

type termPayload struct {
	TermNumber int             `json:"term_number" validate:"gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    utils.Date      `json:"due_date"`
	TermName   string          `json:"term_name"`
}

type syncPayload struct {
	Terms []termPayload `json:"terms" validate:"omitempty,dive"`
}

type createSchedulePayload struct {
	ContractID  *uuid.UUID      `json:"contract_id,omitempty"`
	CustomerID  uuid.UUID       `json:"customer_id" validate:"required"`
	DueDate     utils.Date      `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required,len=3,uppercase"`
	Description *string         `json:"description,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

type patchPayload struct {
	DueDate     *utils.Date      `json:"due_date,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	Status      *string          `json:"status,omitempty" validate:"omitempty,oneof=pending paid overdue cancelled"`
	PaidAmount  *decimal.Decimal `json:"paid_amount,omitempty"`
	PaidDate    *utils.Date      `json:"paid_date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type collectPayload struct {
	PaymentDate utils.Date       `json:"payment_date"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Method      *string          `json:"method,omitempty"`
	Reference   *string          `json:"reference,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type recordPaymentPayload struct {
	CustomerID    uuid.UUID       `json:"customer_id" validate:"required"`
	PaymentDate   utils.Date      `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" validate:"required,len=3,uppercase"`
	QuotationID   *uuid.UUID      `json:"quotation_id,omitempty"`
	ContractID    *uuid.UUID      `json:"contract_id,omitempty"`
	ScheduleID    *uuid.UUID      `json:"schedule_id,omitempty"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Reference     *string         `json:"reference,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
}

// SyncSchedules handles POST /quotations/{quotationId}/schedules/sync.
// Without a terms array the quotation's stored terms are used.
func (h *ScheduleHandler) SyncSchedules(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	quotationID, ok := pathUUID(w, r, "quotationId")
	if !ok {
		return
	}

	var payload syncPayload
	if !h.decode(w, r, &payload, true) {
		return
	}

	var (
		result *domain.SyncResult
		err    error
	)
	if payload.Terms == nil {
		result, err = h.schedules.SyncScheduleFromQuotation(r.Context(), userID, quotationID)
	} else {
		terms := make([]domain.Term, 0, len(payload.Terms))
		for _, t := range payload.Terms {
			if t.DueDate.IsZero() {
				response.BadRequest(w, "due_date is required for every term")
				return
			}
			terms = append(terms, domain.Term{
				TermNumber: t.TermNumber,
				Amount:     t.Amount,
				DueDate:    t.DueDate.Time,
				TermName:   t.TermName,
			})
		}
		result, err = h.schedules.SyncScheduleFromTerms(r.Context(), userID, quotationID, terms)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// CreateSchedule handles POST /schedules
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var payload createSchedulePayload
	if !h.decode(w, r, &payload, false) {
		return
	}
	if payload.DueDate.IsZero() {
		response.BadRequest(w, "due_date is required")
		return
	}

	schedule, err := h.schedules.CreateSchedule(r.Context(), UserIDFromContext(r.Context()), &domain.CreateScheduleRequest{
		ContractID:  payload.ContractID,
		CustomerID:  payload.CustomerID,
		DueDate:     payload.DueDate.Time,
		Amount:      payload.Amount,
		Currency:    payload.Currency,
		Description: payload.Description,
		Notes:       payload.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, schedule)
}

// ListSchedules handles GET /schedules?contract_id=&quotation_id=
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	var filter domain.ScheduleFilter
	for param, target := range map[string]**uuid.UUID{
		"contract_id":  &filter.ContractID,
		"quotation_id": &filter.QuotationID,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, param+" must be a valid UUID")
			return
		}
		*target = &id
	}

	schedules, err := h.schedules.ListSchedules(r.Context(), UserIDFromContext(r.Context()), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, schedules)
}

// GetSchedule handles GET /schedules/{id}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.GetSchedule(r.Context(), UserIDFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// UpdateSchedule handles PATCH /schedules/{id}
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var payload patchPayload
	if !h.decode(w, r, &payload, false) {
		return
	}

	patch := domain.SchedulePatch{
		Amount:      payload.Amount,
		Currency:    payload.Currency,
		Status:      payload.Status,
		PaidAmount:  payload.PaidAmount,
		Description: payload.Description,
		Notes:       payload.Notes,
	}
	if payload.DueDate != nil && !payload.DueDate.IsZero() {
		patch.DueDate = &payload.DueDate.Time
	}
	if payload.PaidDate != nil && !payload.PaidDate.IsZero() {
		patch.PaidDate = &payload.PaidDate.Time
	}

	schedule, err := h.schedules.UpdateSchedule(r.Context(), UserIDFromContext(r.Context()), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// DeleteSchedule handles DELETE /schedules/{id}
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.schedules.DeleteSchedule(r.Context(), UserIDFromContext(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}

// CollectSchedule handles POST /schedules/{id}/collect
func (h *ScheduleHandler) CollectSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var payload collectPayload
	if !h.decode(w, r, &payload, false) {
		return
	}
	if payload.PaymentDate.IsZero() {
		response.BadRequest(w, "payment_date is required")
		return
	}

	result, err := h.schedules.MarkScheduleCollected(r.Context(), UserIDFromContext(r.Context()), id, &domain.CollectScheduleRequest{
		PaymentDate: payload.PaymentDate.Time,
		Amount:      payload.Amount,
		Method:      payload.Method,
		Reference:   payload.Reference,
		Notes:       payload.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// MarkOverdue handles POST /schedules/{id}/overdue. A schedule that was not
// pending is answered with null data.
func (h *ScheduleHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.MarkOverdue(r.Context(), UserIDFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// SweepOverdue handles POST /schedules/sweep
func (h *ScheduleHandler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	result, err := h.schedules.SweepOverdue(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// RecordPayment handles POST /payments
func (h *ScheduleHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var payload recordPaymentPayload
	if !h.decode(w, r, &payload, false) {
		return
	}
	if payload.PaymentDate.IsZero() {
		response.BadRequest(w, "payment_date is required")
		return
	}

	payment, err := h.schedules.RecordPayment(r.Context(), UserIDFromContext(r.Context()), &domain.RecordPaymentRequest{
		CustomerID:    payload.CustomerID,
		PaymentDate:   payload.PaymentDate.Time,
		Amount:        payload.Amount,
		Currency:      payload.Currency,
		QuotationID:   payload.QuotationID,
		ContractID:    payload.ContractID,
		ScheduleID:    payload.ScheduleID,
		PaymentMethod: payload.PaymentMethod,
		Reference:     payload.Reference,
		Notes:         payload.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, payment)
}

// GetStatistics handles GET /schedules/statistics
func (h *ScheduleHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statistics.GetStatistics(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, stats)
}

// GetReceivables handles GET /schedules/receivables?month=YYYY-MM. Without
// month the service picks the current business month.
func (h *ScheduleHandler) GetReceivables(w http.ResponseWriter, r *http.Request) {
	var month time.Time
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := utils.ParseMonth(raw)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		month = parsed
	}

	result, err := h.statistics.GetMonthReceivables(r.Context(), UserIDFromContext(r.Context()), month)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// GetReminders handles GET /schedules/reminders?days=N
func (h *ScheduleHandler) GetReminders(w http.ResponseWriter, r *http.Request) {
	days := h.defaultReminderDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "days must be an integer")
			return
		}
		days = parsed
	}

	reminders, err := h.statistics.GetReminders(r.Context(), UserIDFromContext(r.Context()), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, reminders)
}

// decode reads and validates a JSON body. allowEmpty accepts a missing body.
func (h *ScheduleHandler) decode(w http.ResponseWriter, r *http.Request, dest interface{}, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			response.BadRequest(w, "Invalid request body: "+err.Error())
			return false
		}
	}

	if err := h.validator.Struct(dest); err != nil {
		response.BadRequest(w, "Validation failed: "+err.Error())
		return false
	}

	return true
}

func (h *ScheduleHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	entry := h.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err,
	})
	if status := customError.StatusCode(err); status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	response.FromError(w, err)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
