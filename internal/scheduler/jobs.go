package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/domain"
)

// Sweeper flips every past-due pending schedule to overdue
type Sweeper interface {
	SweepAllUsers(ctx context.Context) (int, error)
}

// ReminderSource groups upcoming and overdue collections by owner
type ReminderSource interface {
	ReminderDigest(ctx context.Context, daysAhead int) (map[uuid.UUID][]domain.Reminder, error)
}

// Jobs runs the periodic collection tasks. Every run holds a redis lock so
// only one scheduler replica executes a given job at a time.
type Jobs struct {
	sweeper      Sweeper
	reminders    ReminderSource
	locker       *redislock.Client
	lockTTL      time.Duration
	reminderDays int
	timeout      time.Duration
	logger       *logrus.Logger
}

type Options struct {
	LockTTL      time.Duration
	ReminderDays int
}

func NewJobs(sweeper Sweeper, reminders ReminderSource, locker *redislock.Client, opts Options, logger *logrus.Logger) *Jobs {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Jobs{
		sweeper:      sweeper,
		reminders:    reminders,
		locker:       locker,
		lockTTL:      opts.LockTTL,
		reminderDays: opts.ReminderDays,
		timeout:      opts.LockTTL,
		logger:       logger,
	}
}

// Register schedules both jobs on c.
func (j *Jobs) Register(c *cron.Cron, sweepSpec, reminderSpec string) error {
	if _, err := c.AddFunc(sweepSpec, func() { j.run("sweep-overdue", j.Sweep) }); err != nil {
		return fmt.Errorf("schedule sweep job: %w", err)
	}
	if _, err := c.AddFunc(reminderSpec, func() { j.run("reminders", j.SendReminders) }); err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}
	return nil
}

func (j *Jobs) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.WithLock(ctx, name, job); err != nil {
		j.logger.WithError(err).WithField("job", name).Error("Scheduled job failed")
	}
}

// WithLock runs job while holding lock:scheduler:<name>. A lock held by
// another replica skips the run without error.
func (j *Jobs) WithLock(ctx context.Context, name string, job func(ctx context.Context) error) error {
	entry := j.logger.WithField("job", name)

	lock, err := j.locker.Obtain(ctx, "lock:scheduler:"+name, j.lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		entry.Info("Job already running elsewhere, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("obtain lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			entry.WithError(err).Warn("Failed to release job lock")
		}
	}()

	started := time.Now()
	entry.Info("Job started")
	if err := job(ctx); err != nil {
		return err
	}
	entry.WithField("duration", time.Since(started).String()).Info("Job finished")
	return nil
}

// Sweep marks past-due schedules overdue for every user.
func (j *Jobs) Sweep(ctx context.Context) error {
	updated, err := j.sweeper.SweepAllUsers(ctx)
	j.logger.WithField("updated", updated).Info("Overdue sweep completed")
	return err
}

// SendReminders logs the reminder digest per user.
func (j *Jobs) SendReminders(ctx context.Context) error {
	digest, err := j.reminders.ReminderDigest(ctx, j.reminderDays)
	for userID, reminders := range digest {
		counts := make(map[string]int)
		for _, r := range reminders {
			counts[r.Urgency]++
		}
		j.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"reminders": len(reminders),
			"overdue":   counts[domain.UrgencyOverdue],
			"due_today": counts[domain.UrgencyDueToday],
			"due_soon":  counts[domain.UrgencyDueSoon],
		}).Info("Collection reminders ready")
	}
	return err
}
