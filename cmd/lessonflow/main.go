package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lessonflow/lessonflow/internal/app"
	"github.com/lessonflow/lessonflow/internal/enrollment"
	"github.com/lessonflow/lessonflow/internal/observability"
	"github.com/lessonflow/lessonflow/internal/payroll"
	"github.com/lessonflow/lessonflow/internal/platform/cache"
	"github.com/lessonflow/lessonflow/internal/platform/db"
	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/scheduling"
	"github.com/lessonflow/lessonflow/internal/transfer"
	"github.com/lessonflow/lessonflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := schedtime.SetZone(cfg.ScheduleTZ); err != nil {
		logger.Error("load schedule timezone", slog.String("tz", cfg.ScheduleTZ), slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	schedulingRepo := scheduling.NewRepository(pool)
	schedulingService := scheduling.NewService(schedulingRepo)
	schedulingHandler := scheduling.NewHandler(logger, schedulingService)

	payrollRepo := payroll.NewRepository(pool)
	holidayCache := payroll.NewHolidayCache(redisClient, payrollRepo, cfg.HolidayCacheTTL)
	payrollService := payroll.NewService(payrollRepo, holidayCache)
	payrollHandler := payroll.NewHandler(logger, payrollService)

	enrollmentRepo := enrollment.NewRepository(pool)
	enrollmentService := enrollment.NewService(enrollmentRepo)
	enrollmentHandler := enrollment.NewHandler(logger, enrollmentService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	transferRepo := transfer.NewRepository(pool)
	transferService := transfer.NewService(logger, transferRepo, jobsClient)
	transferHandler := transfer.NewHandler(logger, transferService, schedulingService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SchedulingHandler: schedulingHandler,
		PayrollHandler:    payrollHandler,
		EnrollmentHandler: enrollmentHandler,
		TransferHandler:   transferHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
