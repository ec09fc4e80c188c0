package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// StatisticsService answers read-only aggregates over the schedule store.
// Every aggregate uses Schedule.IsEffectivelyOverdue, so a pending schedule
// past its due date counts as overdue whether or not the sweep has run.
type StatisticsService struct {
	ScheduleRepo repository.ScheduleRepository

	cache       *cache.StatisticsCache
	logger      *logrus.Logger
	loc         *time.Location
	now         func() time.Time
	dueSoonDays int
}

func NewStatisticsService(
	scheduleRepo repository.ScheduleRepository,
	statsCache *cache.StatisticsCache,
	logger *logrus.Logger,
	loc *time.Location,
	dueSoonDays int,
) *StatisticsService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StatisticsService{
		ScheduleRepo: scheduleRepo,
		cache:        statsCache,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
		dueSoonDays:  dueSoonDays,
	}
}

func (s *StatisticsService) today() time.Time {
	return utils.Today(s.now(), s.loc)
}

// cached serves dest from the statistics cache, falling back to the loader
// alone when redis is unavailable. Loader errors are returned as is.
func (s *StatisticsService) cached(ctx context.Context, userID uuid.UUID, dest interface{}, loader func(context.Context) (interface{}, error), parts ...string) error {
	var loaderErr error
	load := func(ctx context.Context) (interface{}, error) {
		value, err := loader(ctx)
		loaderErr = err
		return value, err
	}

	key, err := s.cache.BuildKey(ctx, userID, parts...)
	if err == nil {
		err = s.cache.FetchJSON(ctx, key, dest, load)
		if err == nil || ctx.Err() != nil {
			return err
		}
		if loaderErr != nil {
			return loaderErr
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"error":   customError.WrapCacheError(err),
	}).Warn("statistics cache unavailable, computing directly")

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	return assign(value, dest)
}

func assign(value, dest interface{}) error {
	switch d := dest.(type) {
	case *domain.Statistics:
		*d = *value.(*domain.Statistics)
	case *domain.MonthReceivables:
		*d = *value.(*domain.MonthReceivables)
	default:
		return fmt.Errorf("unsupported statistics type %T", dest)
	}
	return nil
}

// GetStatistics returns current month and year totals plus the overdue summary.
func (s *StatisticsService) GetStatistics(ctx context.Context, userID uuid.UUID) (*domain.Statistics, error) {
	today := s.today()

	var stats domain.Statistics
	err := s.cached(ctx, userID, &stats, func(ctx context.Context) (interface{}, error) {
		return s.computeStatistics(ctx, userID, today)
	}, "summary", today.Format(utils.DateLayout))
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *StatisticsService) computeStatistics(ctx context.Context, userID uuid.UUID, today time.Time) (*domain.Statistics, error) {
	yearStart, yearEnd := utils.YearWindow(today)
	monthStart, monthEnd := utils.MonthWindow(today)

	schedules, err := s.ScheduleRepo.ListForStatistics(ctx, userID, yearStart, yearEnd, today)
	if err != nil {
		return nil, customError.WrapDatabaseError("load statistics", err)
	}

	stats := &domain.Statistics{
		AsOf:         today,
		CurrentMonth: emptyTotals(),
		CurrentYear:  emptyTotals(),
		Overdue:      domain.OverdueSummary{TotalAmount: decimal.Zero},
	}
	inMonth := func(t time.Time) bool { return !t.Before(monthStart) && t.Before(monthEnd) }
	inYear := func(t time.Time) bool { return !t.Before(yearStart) && t.Before(yearEnd) }

	totalDaysLate := 0
	for _, schedule := range schedules {
		switch {
		case schedule.Status == domain.ScheduleStatusCancelled:
			continue

		case schedule.Status == domain.ScheduleStatusPaid:
			when := schedule.DueDate
			if schedule.PaidDate != nil {
				when = *schedule.PaidDate
			}
			amount := schedule.CollectedAmount()
			if inYear(when) {
				stats.CurrentYear.Collected = stats.CurrentYear.Collected.Add(amount)
			}
			if inMonth(when) {
				stats.CurrentMonth.Collected = stats.CurrentMonth.Collected.Add(amount)
			}

		case schedule.IsEffectivelyOverdue(today):
			if inYear(schedule.DueDate) {
				stats.CurrentYear.Overdue = stats.CurrentYear.Overdue.Add(schedule.Amount)
			}
			if inMonth(schedule.DueDate) {
				stats.CurrentMonth.Overdue = stats.CurrentMonth.Overdue.Add(schedule.Amount)
			}
			stats.Overdue.Count++
			stats.Overdue.TotalAmount = stats.Overdue.TotalAmount.Add(schedule.Amount)
			totalDaysLate += utils.DaysBetween(schedule.DueDate, today)

		default:
			if inYear(schedule.DueDate) {
				stats.CurrentYear.Pending = stats.CurrentYear.Pending.Add(schedule.Amount)
			}
			if inMonth(schedule.DueDate) {
				stats.CurrentMonth.Pending = stats.CurrentMonth.Pending.Add(schedule.Amount)
			}
		}
	}

	if stats.Overdue.Count > 0 {
		avg := decimal.NewFromInt(int64(totalDaysLate)).
			Div(decimal.NewFromInt(int64(stats.Overdue.Count))).
			Round(2)
		stats.Overdue.AverageDaysLate = avg.InexactFloat64()
	}

	return stats, nil
}

func emptyTotals() domain.PeriodTotals {
	return domain.PeriodTotals{Collected: decimal.Zero, Pending: decimal.Zero, Overdue: decimal.Zero}
}

// GetMonthReceivables lists the schedules due in month with days_until_due
// and the lazily computed is_overdue flag. A zero month means the month of
// today in the business timezone.
func (s *StatisticsService) GetMonthReceivables(ctx context.Context, userID uuid.UUID, month time.Time) (*domain.MonthReceivables, error) {
	today := s.today()
	if month.IsZero() {
		month = today
	}
	monthStart, _ := utils.MonthWindow(month)

	var receivables domain.MonthReceivables
	err := s.cached(ctx, userID, &receivables, func(ctx context.Context) (interface{}, error) {
		return s.computeMonthReceivables(ctx, userID, month, today)
	}, "receivables", monthStart.Format("2006-01"), today.Format(utils.DateLayout))
	if err != nil {
		return nil, err
	}

	return &receivables, nil
}

func (s *StatisticsService) computeMonthReceivables(ctx context.Context, userID uuid.UUID, month, today time.Time) (*domain.MonthReceivables, error) {
	monthStart, monthEnd := utils.MonthWindow(month)

	schedules, err := s.ScheduleRepo.ListWithCustomerDueBetween(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, customError.WrapDatabaseError("load receivables", err)
	}

	result := &domain.MonthReceivables{
		MonthStart:  monthStart,
		MonthEnd:    monthEnd,
		Receivables: make([]domain.Receivable, 0, len(schedules)),
		Summary: domain.ReceivablesSummary{
			Total:     domain.BucketSummary{Amount: decimal.Zero},
			Collected: domain.BucketSummary{Amount: decimal.Zero},
			Pending:   domain.BucketSummary{Amount: decimal.Zero},
			Overdue:   domain.BucketSummary{Amount: decimal.Zero},
		},
	}

	add := func(bucket *domain.BucketSummary, amount decimal.Decimal) {
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(amount)
	}

	for _, row := range schedules {
		overdue := row.IsEffectivelyOverdue(today)
		result.Receivables = append(result.Receivables, domain.Receivable{
			ScheduleWithCustomer: *row,
			DaysUntilDue:         utils.DaysBetween(today, row.DueDate),
			IsOverdue:            overdue,
		})

		switch {
		case row.Status == domain.ScheduleStatusCancelled:
			continue
		case row.Status == domain.ScheduleStatusPaid:
			add(&result.Summary.Collected, row.CollectedAmount())
		case overdue:
			add(&result.Summary.Overdue, row.Amount)
		default:
			add(&result.Summary.Pending, row.Amount)
		}
		add(&result.Summary.Total, row.Amount)
	}

	return result, nil
}

// GetReminders returns, per active contract, the next outstanding schedule due
// within daysAhead, classified by urgency.
func (s *StatisticsService) GetReminders(ctx context.Context, userID uuid.UUID, daysAhead int) ([]domain.Reminder, error) {
	if daysAhead < 0 {
		return nil, customError.WrapInvalidInput("days must not be negative")
	}

	today := s.today()
	rows, err := s.ScheduleRepo.ListReminderRows(ctx, userID, today.AddDate(0, 0, daysAhead))
	if err != nil {
		return nil, customError.WrapDatabaseError("load reminders", err)
	}

	reminders := make([]domain.Reminder, 0, len(rows))
	for _, row := range rows {
		days := utils.DaysBetween(today, row.DueDate)
		reminders = append(reminders, domain.Reminder{
			ScheduleID:   row.ScheduleID,
			ContractID:   row.ContractID,
			CustomerID:   row.CustomerID,
			CustomerName: row.CustomerName,
			DueDate:      row.DueDate,
			Amount:       row.Amount,
			Currency:     row.Currency,
			DaysUntilDue: days,
			Urgency:      s.urgency(days),
		})
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].DueDate.Before(reminders[j].DueDate)
	})

	return reminders, nil
}

func (s *StatisticsService) urgency(daysUntilDue int) string {
	switch {
	case daysUntilDue < 0:
		return domain.UrgencyOverdue
	case daysUntilDue == 0:
		return domain.UrgencyDueToday
	case daysUntilDue <= s.dueSoonDays:
		return domain.UrgencyDueSoon
	default:
		return domain.UrgencyUpcoming
	}
}

// ReminderDigest collects reminders for every user with outstanding schedules
// due within daysAhead. Users without reminders are omitted.
func (s *StatisticsService) ReminderDigest(ctx context.Context, daysAhead int) (map[uuid.UUID][]domain.Reminder, error) {
	before := s.today().AddDate(0, 0, daysAhead+1)
	users, err := s.ScheduleRepo.ListUsersWithDueBefore(ctx, before, []string{
		domain.ScheduleStatusPending,
		domain.ScheduleStatusOverdue,
	})
	if err != nil {
		return nil, customError.WrapDatabaseError("list users to remind", err)
	}

	digest := make(map[uuid.UUID][]domain.Reminder, len(users))
	var errs []error
	for _, userID := range users {
		reminders, err := s.GetReminders(ctx, userID, daysAhead)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if len(reminders) > 0 {
			digest[userID] = reminders
		}
	}

	return digest, errors.Join(errs...)
}
