package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/domain"
)

const scheduleColumns = `id, user_id, contract_id, quotation_id, customer_id, schedule_number, due_date,
		amount, currency, status, paid_amount, paid_date, payment_id, description, notes, source_type,
		created_at, updated_at`

const scheduleColumnsQualified = `s.id, s.user_id, s.contract_id, s.quotation_id, s.customer_id, s.schedule_number, s.due_date,
		s.amount, s.currency, s.status, s.paid_amount, s.paid_date, s.payment_id, s.description, s.notes, s.source_type,
		s.created_at, s.updated_at`

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		INSERT INTO payment_schedules (id, user_id, contract_id, quotation_id, customer_id, schedule_number,
			due_date, amount, currency, status, description, notes, source_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.UserID,
		schedule.ContractID,
		schedule.QuotationID,
		schedule.CustomerID,
		schedule.ScheduleNumber,
		schedule.DueDate,
		schedule.Amount,
		schedule.Currency,
		schedule.Status,
		schedule.Description,
		schedule.Notes,
		schedule.SourceType,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	return err
}

func (r *scheduleRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE id = $1 AND user_id = $2
	`

	return r.getOne(ctx, query, id, userID)
}

func (r *scheduleRepository) List(ctx context.Context, userID uuid.UUID, filter domain.ScheduleFilter) ([]*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE user_id = $1
			AND ($2::uuid IS NULL OR contract_id = $2)
			AND ($3::uuid IS NULL OR quotation_id = $3)
		ORDER BY schedule_number, due_date
	`

	var schedules []*domain.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, userID, filter.ContractID, filter.QuotationID); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *scheduleRepository) ListByQuotation(ctx context.Context, quotationID uuid.UUID) ([]*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE quotation_id = $1
		ORDER BY schedule_number
	`

	var schedules []*domain.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, quotationID); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *scheduleRepository) MaxScheduleNumber(ctx context.Context, userID uuid.UUID, contractID *uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(schedule_number), 0)
		FROM payment_schedules
		WHERE user_id = $1
			AND (($2::uuid IS NULL AND contract_id IS NULL AND quotation_id IS NULL) OR contract_id = $2)
	`

	var max int
	if err := r.db.GetContext(ctx, &max, query, userID, contractID); err != nil {
		return 0, err
	}

	return max, nil
}

func (r *scheduleRepository) UpdateTermFields(ctx context.Context, id uuid.UUID, amount decimal.Decimal, dueDate time.Time, description *string, today time.Time) (*domain.Schedule, error) {
	query := `
		UPDATE payment_schedules
		SET amount = $2, due_date = $3, description = $4, updated_at = $5,
			status = CASE WHEN status = 'overdue' AND $3 >= $6 THEN 'pending' ELSE status END
		WHERE id = $1
		RETURNING ` + scheduleColumns

	return r.getOne(ctx, query, id, amount, dueDate, description, time.Now(), today)
}

func (r *scheduleRepository) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM payment_schedules
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *scheduleRepository) MarkPaidIfUnpaid(ctx context.Context, userID, id uuid.UUID, paidDate time.Time, paidAmount decimal.Decimal, paymentID *uuid.UUID) (domain.UpdateResult, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'paid', paid_date = $3, paid_amount = $4, payment_id = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2 AND status <> 'paid'
		RETURNING ` + scheduleColumns

	schedule, err := r.getOne(ctx, query, id, userID, paidDate, paidAmount, paymentID, time.Now())
	if err != nil {
		return domain.AlreadyDone(), err
	}
	if schedule == nil {
		return domain.AlreadyDone(), nil
	}

	return domain.Updated(schedule), nil
}

func (r *scheduleRepository) MarkPaid(ctx context.Context, userID, id uuid.UUID, paidDate time.Time, paidAmount decimal.Decimal, paymentID *uuid.UUID) (*domain.Schedule, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'paid', paid_date = $3, paid_amount = $4, payment_id = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
		RETURNING ` + scheduleColumns

	return r.getOne(ctx, query, id, userID, paidDate, paidAmount, paymentID, time.Now())
}

func (r *scheduleRepository) EarliestPendingForContract(ctx context.Context, contractID uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE contract_id = $1 AND status = 'pending'
		ORDER BY due_date, schedule_number
		LIMIT 1
	`

	return r.getOne(ctx, query, contractID)
}

func (r *scheduleRepository) Update(ctx context.Context, userID, id uuid.UUID, patch domain.SchedulePatch, clearPayment bool) (*domain.Schedule, error) {
	sets := make([]string, 0, 10)
	args := []interface{}{id, userID}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	}
	if patch.Amount != nil {
		set("amount", *patch.Amount)
	}
	if patch.Currency != nil {
		set("currency", *patch.Currency)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.PaidAmount != nil {
		set("paid_amount", *patch.PaidAmount)
	}
	if patch.PaidDate != nil {
		set("paid_date", *patch.PaidDate)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if clearPayment {
		sets = append(sets, "payment_id = NULL")
		if patch.PaidAmount == nil {
			sets = append(sets, "paid_amount = NULL")
		}
		if patch.PaidDate == nil {
			sets = append(sets, "paid_date = NULL")
		}
	}
	set("updated_at", time.Now())

	query := `
		UPDATE payment_schedules
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND user_id = $2
		RETURNING ` + scheduleColumns

	return r.getOne(ctx, query, args...)
}

func (r *scheduleRepository) DeleteUnpaid(ctx context.Context, userID, id uuid.UUID) (*domain.Schedule, error) {
	query := `
		DELETE FROM payment_schedules
		WHERE id = $1 AND user_id = $2 AND status <> 'paid'
		RETURNING ` + scheduleColumns

	return r.getOne(ctx, query, id, userID)
}

func (r *scheduleRepository) MarkOverdueIfPending(ctx context.Context, userID, id uuid.UUID) (domain.UpdateResult, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'overdue', updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
		RETURNING ` + scheduleColumns

	schedule, err := r.getOne(ctx, query, id, userID, time.Now())
	if err != nil {
		return domain.AlreadyDone(), err
	}
	if schedule == nil {
		return domain.AlreadyDone(), nil
	}

	return domain.Updated(schedule), nil
}

func (r *scheduleRepository) SweepOverdue(ctx context.Context, userID uuid.UUID, today time.Time) ([]domain.SweptSchedule, error) {
	query := `
		UPDATE payment_schedules
		SET status = 'overdue', updated_at = $3
		WHERE user_id = $1 AND status = 'pending' AND due_date < $2
		RETURNING id, contract_id
	`

	swept := []domain.SweptSchedule{}
	if err := r.db.SelectContext(ctx, &swept, query, userID, today, time.Now()); err != nil {
		return nil, err
	}

	return swept, nil
}

func (r *scheduleRepository) ListUsersWithDueBefore(ctx context.Context, before time.Time, statuses []string) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM payment_schedules
		WHERE status = ANY($1) AND due_date < $2
	`

	var users []uuid.UUID
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(statuses), before); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *scheduleRepository) ListWithCustomerDueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.ScheduleWithCustomer, error) {
	query := `SELECT ` + scheduleColumnsQualified + `, cu.name AS customer_name
		FROM payment_schedules s
		LEFT JOIN customers cu ON cu.id = s.customer_id
		WHERE s.user_id = $1 AND s.due_date >= $2 AND s.due_date < $3
		ORDER BY s.due_date, s.schedule_number
	`

	var schedules []*domain.ScheduleWithCustomer
	if err := r.db.SelectContext(ctx, &schedules, query, userID, from, to); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *scheduleRepository) ListForStatistics(ctx context.Context, userID uuid.UUID, from, to, today time.Time) ([]*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM payment_schedules
		WHERE user_id = $1 AND status <> 'cancelled'
			AND ((due_date >= $2 AND due_date < $3)
				OR (paid_date >= $2 AND paid_date < $3)
				OR (status IN ('pending', 'overdue') AND due_date < $4))
	`

	var schedules []*domain.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, userID, from, to, today); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *scheduleRepository) ListReminderRows(ctx context.Context, userID uuid.UUID, until time.Time) ([]*domain.ReminderRow, error) {
	query := `
		SELECT DISTINCT ON (s.contract_id)
			s.id AS schedule_id, s.contract_id, s.customer_id, cu.name AS customer_name,
			s.due_date, s.amount, s.currency, s.status
		FROM payment_schedules s
		JOIN contracts c ON c.id = s.contract_id
		LEFT JOIN customers cu ON cu.id = s.customer_id
		WHERE s.user_id = $1 AND c.status = 'active'
			AND s.status IN ('pending', 'overdue') AND s.due_date <= $2
		ORDER BY s.contract_id, s.due_date, s.schedule_number
	`

	var rows []*domain.ReminderRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, until); err != nil {
		return nil, err
	}

	return rows, nil
}

// getOne runs a single-row query, translating sql.ErrNoRows into (nil, nil).
func (r *scheduleRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Schedule, error) {
	var schedule domain.Schedule
	err := r.db.GetContext(ctx, &schedule, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}
