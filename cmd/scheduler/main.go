package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/repository"
	"github.com/segyhp/collection-engine/internal/scheduler"
	"github.com/segyhp/collection-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger()
	logger.Info("Starting collection scheduler...")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// The job locks need redis, so it is mandatory here
	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure redis")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to redis")
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	statsCache := cache.NewStatisticsCache(redisClient, cfg.Business.StatisticsCacheTTL)
	loc := cfg.Location()

	scheduleService := service.NewScheduleService(
		scheduleRepo,
		repository.NewPaymentRepository(db),
		repository.NewContractRepository(db),
		repository.NewQuotationRepository(db),
		statsCache, logger, loc,
	)
	statisticsService := service.NewStatisticsService(scheduleRepo, statsCache, logger, loc, cfg.Business.DueSoonDays)

	jobs := scheduler.NewJobs(scheduleService, statisticsService, redislock.New(redisClient), scheduler.Options{
		LockTTL:      cfg.Scheduler.LockTTL,
		ReminderDays: cfg.Business.DefaultReminderDays,
	}, logger)

	// Cron specs are evaluated in the business timezone so midnight means local midnight
	c := cron.New(cron.WithSeconds(), cron.WithLocation(loc))
	if err := jobs.Register(c, cfg.Scheduler.SweepCron, cfg.Scheduler.ReminderCron); err != nil {
		logger.WithError(err).Fatal("Failed to schedule jobs")
	}

	c.Start()
	logger.WithFields(logrus.Fields{
		"sweep":    cfg.Scheduler.SweepCron,
		"reminder": cfg.Scheduler.ReminderCron,
		"timezone": loc.String(),
	}).Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	logger.Info("Scheduler stopped")
}
