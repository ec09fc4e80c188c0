package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/handler"
	"github.com/segyhp/collection-engine/internal/migration"
	"github.com/segyhp/collection-engine/internal/repository"
	"github.com/segyhp/collection-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger()

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := migration.New(db.DB, cfg.Database.MigrationsPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to prepare migrations")
		}
		if err := migrator.Up(); err != nil {
			logger.WithError(err).Fatal("Failed to apply migrations")
		}
	}

	// Initialize Redis; statistics fall back to direct computation when it is unreachable
	redisClient, err := initRedis(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure redis")
	}
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, statistics cache degraded")
	}

	// Initialize repositories
	scheduleRepo := repository.NewScheduleRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	contractRepo := repository.NewContractRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)

	// Initialize services
	statsCache := cache.NewStatisticsCache(redisClient, cfg.Business.StatisticsCacheTTL)
	loc := cfg.Location()
	scheduleService := service.NewScheduleService(scheduleRepo, paymentRepo, contractRepo, quotationRepo, statsCache, logger, loc)
	statisticsService := service.NewStatisticsService(scheduleRepo, statsCache, logger, loc, cfg.Business.DueSoonDays)

	scheduleHandler := handler.NewScheduleHandler(scheduleService, statisticsService, logger, cfg.Business.DefaultReminderDays)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	router := handler.NewRouter(scheduleHandler, healthHandler, handler.RouterConfig{
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     server.Addr,
			"env":      cfg.Server.Env,
			"timezone": loc.String(),
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
