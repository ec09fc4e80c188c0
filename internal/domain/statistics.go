package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reminder urgencies
const (
	UrgencyOverdue  = "overdue"
	UrgencyDueToday = "due_today"
	UrgencyDueSoon  = "due_soon"
	UrgencyUpcoming = "upcoming"
)

// PeriodTotals sums one calendar window
type PeriodTotals struct {
	Collected decimal.Decimal `json:"collected"`
	Pending   decimal.Decimal `json:"pending"`
	Overdue   decimal.Decimal `json:"overdue"`
}

type OverdueSummary struct {
	Count           int             `json:"count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AverageDaysLate float64         `json:"average_days_late"`
}

type Statistics struct {
	AsOf         time.Time      `json:"as_of"`
	CurrentMonth PeriodTotals   `json:"current_month"`
	CurrentYear  PeriodTotals   `json:"current_year"`
	Overdue      OverdueSummary `json:"overdue"`
}

// ScheduleWithCustomer is a schedule joined with its customer's display name
type ScheduleWithCustomer struct {
	Schedule
	CustomerName *string `json:"customer_name,omitempty" db:"customer_name"`
}

type Receivable struct {
	ScheduleWithCustomer
	DaysUntilDue int  `json:"days_until_due"`
	IsOverdue    bool `json:"is_overdue"`
}

type BucketSummary struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type ReceivablesSummary struct {
	Total     BucketSummary `json:"total"`
	Collected BucketSummary `json:"collected"`
	Pending   BucketSummary `json:"pending"`
	Overdue   BucketSummary `json:"overdue"`
}

type MonthReceivables struct {
	MonthStart  time.Time          `json:"month_start"`
	MonthEnd    time.Time          `json:"month_end"`
	Receivables []Receivable       `json:"receivables"`
	Summary     ReceivablesSummary `json:"summary"`
}

// ReminderRow is the earliest outstanding schedule of an active contract
type ReminderRow struct {
	ScheduleID   uuid.UUID       `db:"schedule_id"`
	ContractID   uuid.UUID       `db:"contract_id"`
	CustomerID   uuid.UUID       `db:"customer_id"`
	CustomerName *string         `db:"customer_name"`
	DueDate      time.Time       `db:"due_date"`
	Amount       decimal.Decimal `db:"amount"`
	Currency     string          `db:"currency"`
	Status       string          `db:"status"`
}

type Reminder struct {
	ScheduleID   uuid.UUID       `json:"schedule_id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName *string         `json:"customer_name,omitempty"`
	DueDate      time.Time       `json:"due_date"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	DaysUntilDue int             `json:"days_until_due"`
	Urgency      string          `json:"urgency"`
}
