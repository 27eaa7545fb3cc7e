package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lessonflow/lessonflow/internal/app"
	jobmetrics "github.com/lessonflow/lessonflow/internal/jobs"
	"github.com/lessonflow/lessonflow/internal/payroll"
	"github.com/lessonflow/lessonflow/internal/platform/cache"
	"github.com/lessonflow/lessonflow/internal/platform/db"
	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/scheduling"
	"github.com/lessonflow/lessonflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	payrollRepo := payroll.NewRepository(pool)
	holidayCache := payroll.NewHolidayCache(redisClient, payrollRepo, cfg.HolidayCacheTTL)
	payrollService := payroll.NewService(payrollRepo, holidayCache)

	schedulingRepo := scheduling.NewRepository(pool)

	metrics := jobmetrics.NewMetrics(nil)
	refreshHandler := jobs.NewPayrollRefreshHandler(logger, payrollService, metrics, time.Now)
	sweepHandler := jobs.NewPayrollSweepHandler(logger, schedulingRepo, payrollService, metrics, time.Now)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePayrollRefresh, Handler: refreshHandler},
			{Type: jobs.TaskTypePayrollSweep, Handler: sweepHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 1 * *", Task: jobs.NewPayrollSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
