package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
)

var scheduleColumns = []string{
	"id", "user_id", "contract_id", "quotation_id", "customer_id", "schedule_number", "due_date",
	"amount", "currency", "status", "paid_amount", "paid_date", "payment_id", "description", "notes", "source_type",
	"created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return sqlx.NewDb(db, "sqlmock"), mock
}

func scheduleRow(id, userID uuid.UUID, status string) *sqlmock.Rows {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(scheduleColumns).AddRow(
		id.String(), userID.String(), nil, nil, uuid.NewString(), 1, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		"3000.00", "IDR", status, nil, nil, nil, "DP", nil, domain.SourceTypeManual,
		now, now,
	)
}

func TestScheduleRepository_GetByID(t *testing.T) {
	id, userID := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantFound bool
		wantErr   bool
	}{
		{
			name: "found",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM payment_schedules\s+WHERE id = \$1 AND user_id = \$2`).
					WithArgs(id, userID).
					WillReturnRows(scheduleRow(id, userID, domain.ScheduleStatusPending))
			},
			wantFound: true,
		},
		{
			name: "missing row is not an error",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM payment_schedules`).WithArgs(id, userID).WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "driver error",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM payment_schedules`).WithArgs(id, userID).WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setupMock(mock)

			schedule, err := repository.NewScheduleRepository(db).GetByID(context.Background(), userID, id)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if !tt.wantFound {
				assert.Nil(t, schedule)
				return
			}
			require.NotNil(t, schedule)
			assert.Equal(t, id, schedule.ID)
			assert.True(t, schedule.Amount.Equal(decimal.NewFromInt(3000)))
			assert.False(t, schedule.PaidAmount.Valid)
			assert.Nil(t, schedule.ContractID)
			assert.Equal(t, "DP", *schedule.Description)
		})
	}
}

func TestScheduleRepository_MarkPaidIfUnpaid(t *testing.T) {
	id, userID, paymentID := uuid.New(), uuid.New(), uuid.New()
	paidDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(3000)
	query := regexp.QuoteMeta(`WHERE id = $1 AND user_id = $2 AND status <> 'paid'`)

	t.Run("first writer wins", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).
			WithArgs(id, userID, paidDate, amount, &paymentID, sqlmock.AnyArg()).
			WillReturnRows(scheduleRow(id, userID, domain.ScheduleStatusPaid))

		result, err := repository.NewScheduleRepository(db).MarkPaidIfUnpaid(context.Background(), userID, id, paidDate, amount, &paymentID)

		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeUpdated, result.Outcome)
		assert.Equal(t, domain.ScheduleStatusPaid, result.Schedule.Status)
	})

	t.Run("already paid yields already done", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(scheduleColumns))

		result, err := repository.NewScheduleRepository(db).MarkPaidIfUnpaid(context.Background(), userID, id, paidDate, amount, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeAlreadyDone, result.Outcome)
		assert.Nil(t, result.Schedule)
	})
}

func TestScheduleRepository_DeleteIfPending(t *testing.T) {
	id := uuid.New()
	query := regexp.QuoteMeta(`DELETE FROM payment_schedules`) + `\s+` + regexp.QuoteMeta(`WHERE id = $1 AND status = 'pending'`)

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "pending row removed", affected: 1, want: true},
		{name: "non-pending row kept", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(query).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, tt.affected))

			deleted, err := repository.NewScheduleRepository(db).DeleteIfPending(context.Background(), id)

			require.NoError(t, err)
			assert.Equal(t, tt.want, deleted)
		})
	}
}

func TestScheduleRepository_Update(t *testing.T) {
	id, userID := uuid.New(), uuid.New()
	status := domain.ScheduleStatusPending
	notes := "customer asked to reverse"

	t.Run("reversal clears payment link", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SET status = $3, payment_id = NULL, paid_amount = NULL, paid_date = NULL, updated_at = $4`)).
			WithArgs(id, userID, status, sqlmock.AnyArg()).
			WillReturnRows(scheduleRow(id, userID, status))

		schedule, err := repository.NewScheduleRepository(db).Update(context.Background(), userID, id, domain.SchedulePatch{Status: &status}, true)

		require.NoError(t, err)
		assert.Equal(t, status, schedule.Status)
	})

	t.Run("only supplied columns are written", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SET notes = $3, updated_at = $4`)).
			WithArgs(id, userID, notes, sqlmock.AnyArg()).
			WillReturnRows(scheduleRow(id, userID, status))

		_, err := repository.NewScheduleRepository(db).Update(context.Background(), userID, id, domain.SchedulePatch{Notes: &notes}, false)

		require.NoError(t, err)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`UPDATE payment_schedules`).WillReturnRows(sqlmock.NewRows(scheduleColumns))

		schedule, err := repository.NewScheduleRepository(db).Update(context.Background(), userID, id, domain.SchedulePatch{Notes: &notes}, false)

		require.NoError(t, err)
		assert.Nil(t, schedule)
	})
}

func TestScheduleRepository_UpdateTermFields(t *testing.T) {
	db, mock := newMockDB(t)
	id, userID := uuid.New(), uuid.New()
	dueDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	description := "Termin 2"

	mock.ExpectQuery(regexp.QuoteMeta(`status = CASE WHEN status = 'overdue' AND $3 >= $6 THEN 'pending' ELSE status END`)).
		WithArgs(id, decimal.NewFromInt(3000), dueDate, &description, sqlmock.AnyArg(), today).
		WillReturnRows(scheduleRow(id, userID, domain.ScheduleStatusPending))

	schedule, err := repository.NewScheduleRepository(db).UpdateTermFields(context.Background(), id, decimal.NewFromInt(3000), dueDate, &description, today)

	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Equal(t, domain.ScheduleStatusPending, schedule.Status)
}

func TestScheduleRepository_SweepOverdue(t *testing.T) {
	userID := uuid.New()
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`WHERE user_id = $1 AND status = 'pending' AND due_date < $2`)

	t.Run("returns flipped rows with their contract", func(t *testing.T) {
		db, mock := newMockDB(t)
		first, second, contractID := uuid.New(), uuid.New(), uuid.New()
		mock.ExpectQuery(query+`\s+RETURNING id, contract_id`).
			WithArgs(userID, today, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "contract_id"}).
				AddRow(first.String(), contractID.String()).
				AddRow(second.String(), nil))

		swept, err := repository.NewScheduleRepository(db).SweepOverdue(context.Background(), userID, today)

		require.NoError(t, err)
		require.Len(t, swept, 2)
		assert.Equal(t, first, swept[0].ID)
		assert.Equal(t, contractID, *swept[0].ContractID)
		assert.Nil(t, swept[1].ContractID)
	})

	t.Run("nothing due yields empty slice", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id", "contract_id"}))

		swept, err := repository.NewScheduleRepository(db).SweepOverdue(context.Background(), userID, today)

		require.NoError(t, err)
		assert.NotNil(t, swept)
		assert.Empty(t, swept)
	})
}

func TestScheduleRepository_ListUsersWithDueBefore(t *testing.T) {
	db, mock := newMockDB(t)
	before := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	userID := uuid.New()
	statuses := []string{domain.ScheduleStatusPending, domain.ScheduleStatusOverdue}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = ANY($1) AND due_date < $2`)).
		WithArgs(pq.Array(statuses), before).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID.String()))

	users, err := repository.NewScheduleRepository(db).ListUsersWithDueBefore(context.Background(), before, statuses)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, users)
}

func TestScheduleRepository_ListForStatistics(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`status <> 'cancelled'`)).
		WithArgs(userID, from, to, today).
		WillReturnRows(scheduleRow(uuid.New(), userID, domain.ScheduleStatusOverdue))

	schedules, err := repository.NewScheduleRepository(db).ListForStatistics(context.Background(), userID, from, to, today)

	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, domain.ScheduleStatusOverdue, schedules[0].Status)
}
