package service

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/mocks"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

func newTestStatisticsService(statsCache *cache.StatisticsCache) (*StatisticsService, *mocks.MockScheduleRepository) {
	repo := &mocks.MockScheduleRepository{}
	svc := NewStatisticsService(repo, statsCache, quietLogger(), time.UTC, 7)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func stat(status string, amount int64, due time.Time) *domain.Schedule {
	return &domain.Schedule{ID: uuid.New(), Status: status, Amount: decimal.NewFromInt(amount), DueDate: due}
}

func paidStat(amount int64, due, paid time.Time) *domain.Schedule {
	s := stat(domain.ScheduleStatusPaid, amount, due)
	s.PaidDate = &paid
	s.PaidAmount = decimal.NewNullDecimal(decimal.NewFromInt(amount))
	return s
}

func statisticsFixture() []*domain.Schedule {
	return []*domain.Schedule{
		paidStat(1000, date(2025, 2, 28), date(2025, 3, 2)),
		paidStat(500, date(2025, 1, 10), date(2025, 1, 10)),
		stat(domain.ScheduleStatusPending, 200, date(2025, 3, 10)),
		stat(domain.ScheduleStatusOverdue, 300, date(2024, 12, 15)),
		stat(domain.ScheduleStatusPending, 400, date(2025, 3, 20)),
		stat(domain.ScheduleStatusPending, 600, date(2025, 6, 1)),
		stat(domain.ScheduleStatusCancelled, 9000, date(2025, 3, 5)),
	}
}

func assertDecimal(t *testing.T, expected int64, actual decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, actual.Equal(decimal.NewFromInt(expected)), "%s: expected %d, got %s", field, expected, actual)
}

func TestGetStatistics(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	userID := uuid.New()

	repo.On("ListForStatistics", mock.Anything, userID, date(2025, 1, 1), date(2026, 1, 1), date(2025, 3, 15)).
		Return(statisticsFixture(), nil)

	stats, err := svc.GetStatistics(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 15), stats.AsOf)

	assertDecimal(t, 1000, stats.CurrentMonth.Collected, "month collected")
	assertDecimal(t, 400, stats.CurrentMonth.Pending, "month pending")
	assertDecimal(t, 200, stats.CurrentMonth.Overdue, "month overdue")

	assertDecimal(t, 1500, stats.CurrentYear.Collected, "year collected")
	assertDecimal(t, 1000, stats.CurrentYear.Pending, "year pending")
	assertDecimal(t, 200, stats.CurrentYear.Overdue, "year overdue")

	// the unswept pending row counts alongside the persisted overdue one
	assert.Equal(t, 2, stats.Overdue.Count)
	assertDecimal(t, 500, stats.Overdue.TotalAmount, "overdue total")
	assert.InDelta(t, 47.5, stats.Overdue.AverageDaysLate, 0.001)
}

func TestGetStatistics_StaleOverdueStatusFollowsDueDate(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	userID := uuid.New()

	repo.On("ListForStatistics", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.Schedule{
			stat(domain.ScheduleStatusOverdue, 100, date(2025, 3, 25)),
			stat(domain.ScheduleStatusOverdue, 100, date(2025, 3, 11)),
		}, nil)

	stats, err := svc.GetStatistics(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Overdue.Count)
	assertDecimal(t, 100, stats.Overdue.TotalAmount, "overdue total")
	assert.InDelta(t, 4.0, stats.Overdue.AverageDaysLate, 0.001)
	assertDecimal(t, 100, stats.CurrentMonth.Pending, "month pending")
	assertDecimal(t, 100, stats.CurrentMonth.Overdue, "month overdue")
}

func TestGetStatistics_ServedFromCacheUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	statsCache := cache.NewStatisticsCache(client, time.Minute)

	svc, repo := newTestStatisticsService(statsCache)
	userID := uuid.New()

	repo.On("ListForStatistics", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything).
		Return(statisticsFixture(), nil).Twice()

	first, err := svc.GetStatistics(context.Background(), userID)
	require.NoError(t, err)
	second, err := svc.GetStatistics(context.Background(), userID)
	require.NoError(t, err)

	assert.True(t, first.CurrentYear.Collected.Equal(second.CurrentYear.Collected))
	repo.AssertNumberOfCalls(t, "ListForStatistics", 1)

	require.NoError(t, statsCache.Invalidate(context.Background(), userID))
	_, err = svc.GetStatistics(context.Background(), userID)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ListForStatistics", 2)
}

func TestGetStatistics_FallsBackWhenCacheIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	svc, repo := newTestStatisticsService(cache.NewStatisticsCache(client, time.Minute))
	userID := uuid.New()

	repo.On("ListForStatistics", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything).
		Return(statisticsFixture(), nil)

	stats, err := svc.GetStatistics(context.Background(), userID)

	require.NoError(t, err)
	assertDecimal(t, 1500, stats.CurrentYear.Collected, "year collected")
}

func TestGetStatistics_StorageError(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	userID := uuid.New()

	repo.On("ListForStatistics", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("too many connections"))

	_, err := svc.GetStatistics(context.Background(), userID)

	assert.ErrorIs(t, err, customError.ErrStorage)
}

func TestGetMonthReceivables(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	userID := uuid.New()
	name := "PT Maju"

	withCustomer := func(s *domain.Schedule) *domain.ScheduleWithCustomer {
		return &domain.ScheduleWithCustomer{Schedule: *s, CustomerName: &name}
	}
	stale := stat(domain.ScheduleStatusPending, 200, date(2025, 3, 10))
	upcoming := stat(domain.ScheduleStatusPending, 400, date(2025, 3, 20))
	paid := paidStat(1000, date(2025, 3, 1), date(2025, 3, 2))
	cancelled := stat(domain.ScheduleStatusCancelled, 50, date(2025, 3, 3))

	repo.On("ListWithCustomerDueBetween", mock.Anything, userID, date(2025, 3, 1), date(2025, 4, 1)).
		Return([]*domain.ScheduleWithCustomer{
			withCustomer(paid), withCustomer(cancelled), withCustomer(stale), withCustomer(upcoming),
		}, nil)

	result, err := svc.GetMonthReceivables(context.Background(), userID, date(2025, 3, 1))

	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 1), result.MonthStart)
	assert.Equal(t, date(2025, 4, 1), result.MonthEnd)
	require.Len(t, result.Receivables, 4)

	byID := map[uuid.UUID]domain.Receivable{}
	for _, r := range result.Receivables {
		byID[r.ID] = r
	}

	// not yet swept, still reported overdue
	assert.True(t, byID[stale.ID].IsOverdue)
	assert.Equal(t, -5, byID[stale.ID].DaysUntilDue)
	assert.False(t, byID[upcoming.ID].IsOverdue)
	assert.Equal(t, 5, byID[upcoming.ID].DaysUntilDue)
	assert.False(t, byID[paid.ID].IsOverdue)
	assert.Equal(t, &name, byID[paid.ID].CustomerName)

	assert.Equal(t, 3, result.Summary.Total.Count)
	assertDecimal(t, 1600, result.Summary.Total.Amount, "total")
	assert.Equal(t, 1, result.Summary.Collected.Count)
	assert.Equal(t, 1, result.Summary.Overdue.Count)
	assertDecimal(t, 200, result.Summary.Overdue.Amount, "overdue")
	assert.Equal(t, 1, result.Summary.Pending.Count)
	assertDecimal(t, 400, result.Summary.Pending.Amount, "pending")
}

func TestGetMonthReceivables_DefaultMonthFollowsBusinessTimezone(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	svc.loc = jakarta
	// 20:00 UTC on March 31st is already April 1st in Jakarta
	svc.now = func() time.Time { return time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC) }
	userID := uuid.New()

	repo.On("ListWithCustomerDueBetween", mock.Anything, userID, date(2025, 4, 1), date(2025, 5, 1)).
		Return([]*domain.ScheduleWithCustomer{}, nil).Once()

	result, err := svc.GetMonthReceivables(context.Background(), userID, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, date(2025, 4, 1), result.MonthStart)
	repo.AssertExpectations(t)
}

func TestGetReminders(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	userID := uuid.New()

	row := func(status string, due time.Time) *domain.ReminderRow {
		return &domain.ReminderRow{ScheduleID: uuid.New(), ContractID: uuid.New(), CustomerID: uuid.New(),
			DueDate: due, Amount: decimal.NewFromInt(100), Currency: "IDR", Status: status}
	}

	repo.On("ListReminderRows", mock.Anything, userID, date(2025, 4, 14)).Return([]*domain.ReminderRow{
		row(domain.ScheduleStatusPending, date(2025, 4, 4)),
		row(domain.ScheduleStatusPending, date(2025, 3, 22)),
		row(domain.ScheduleStatusPending, date(2025, 3, 15)),
		row(domain.ScheduleStatusPending, date(2025, 3, 12)),
		row(domain.ScheduleStatusOverdue, date(2025, 3, 18)),
	}, nil)

	reminders, err := svc.GetReminders(context.Background(), userID, 30)

	require.NoError(t, err)
	require.Len(t, reminders, 5)

	expected := []struct {
		due     time.Time
		days    int
		urgency string
	}{
		{date(2025, 3, 12), -3, domain.UrgencyOverdue},
		{date(2025, 3, 15), 0, domain.UrgencyDueToday},
		{date(2025, 3, 18), 3, domain.UrgencyDueSoon},
		{date(2025, 3, 22), 7, domain.UrgencyDueSoon},
		{date(2025, 4, 4), 20, domain.UrgencyUpcoming},
	}
	for i, want := range expected {
		assert.Equal(t, want.due, reminders[i].DueDate)
		assert.Equal(t, want.days, reminders[i].DaysUntilDue)
		assert.Equal(t, want.urgency, reminders[i].Urgency)
	}
}

func TestGetReminders_NegativeWindow(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)

	_, err := svc.GetReminders(context.Background(), uuid.New(), -1)

	assert.ErrorIs(t, err, customError.ErrInvalidInput)
	repo.AssertNotCalled(t, "ListReminderRows", mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderDigest(t *testing.T) {
	svc, repo := newTestStatisticsService(nil)
	withReminders := uuid.New()
	withoutReminders := uuid.New()

	repo.On("ListUsersWithDueBefore", mock.Anything, date(2025, 3, 23),
		[]string{domain.ScheduleStatusPending, domain.ScheduleStatusOverdue}).
		Return([]uuid.UUID{withReminders, withoutReminders}, nil)
	repo.On("ListReminderRows", mock.Anything, withReminders, date(2025, 3, 22)).Return([]*domain.ReminderRow{
		{ScheduleID: uuid.New(), DueDate: date(2025, 3, 16), Amount: decimal.NewFromInt(10), Status: domain.ScheduleStatusPending},
	}, nil)
	repo.On("ListReminderRows", mock.Anything, withoutReminders, date(2025, 3, 22)).Return(nil, nil)

	digest, err := svc.ReminderDigest(context.Background(), 7)

	require.NoError(t, err)
	assert.Len(t, digest, 1)
	require.Len(t, digest[withReminders], 1)
	assert.Equal(t, domain.UrgencyDueSoon, digest[withReminders][0].Urgency)
}
