package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_IsEffectivelyOverdue(t *testing.T) {
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   string
		dueDate  time.Time
		expected bool
	}{
		{"pending past due", ScheduleStatusPending, today.AddDate(0, 0, -1), true},
		{"pending due today", ScheduleStatusPending, today, false},
		{"pending in the future", ScheduleStatusPending, today.AddDate(0, 0, 10), false},
		{"overdue past due", ScheduleStatusOverdue, today.AddDate(0, 0, -30), true},
		{"overdue moved to the future", ScheduleStatusOverdue, today.AddDate(0, 0, 10), false},
		{"overdue moved to today", ScheduleStatusOverdue, today, false},
		{"paid past due", ScheduleStatusPaid, today.AddDate(0, 0, -30), false},
		{"cancelled past due", ScheduleStatusCancelled, today.AddDate(0, 0, -30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{Status: tt.status, DueDate: tt.dueDate}
			assert.Equal(t, tt.expected, s.IsEffectivelyOverdue(today))
		})
	}
}

func TestSchedule_ReopensOn(t *testing.T) {
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	overdue := &Schedule{Status: ScheduleStatusOverdue, DueDate: today.AddDate(0, 0, -5)}
	pending := &Schedule{Status: ScheduleStatusPending, DueDate: today.AddDate(0, 0, -5)}

	assert.True(t, overdue.ReopensOn(today, today))
	assert.True(t, overdue.ReopensOn(today.AddDate(0, 1, 0), today))
	assert.False(t, overdue.ReopensOn(today.AddDate(0, 0, -1), today))
	assert.False(t, pending.ReopensOn(today.AddDate(0, 1, 0), today))
}
