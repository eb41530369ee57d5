package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jobledger/jobledger/internal/accounts"
	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/app"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/budgets"
	"github.com/jobledger/jobledger/internal/codes"
	"github.com/jobledger/jobledger/internal/commitments"
	"github.com/jobledger/jobledger/internal/costs"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/forecast"
	jobmetrics "github.com/jobledger/jobledger/internal/jobs"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/cache"
	"github.com/jobledger/jobledger/internal/platform/db"
	"github.com/jobledger/jobledger/internal/projects"
	"github.com/jobledger/jobledger/internal/revenue"
	"github.com/jobledger/jobledger/internal/settings"
	"github.com/jobledger/jobledger/internal/shared"
	"github.com/jobledger/jobledger/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	auditLogger := shared.NewAuditLogger(pool)

	periodService := periods.NewService(periods.NewRepository(pool))
	accountService := accounts.NewService(accounts.NewRepository(pool))
	settingService := settings.NewService(settings.NewRepository(pool))
	projectService := projects.NewService(projects.NewRepository(pool))
	budgetService := budgets.NewService(budgets.NewRepository(pool), logger)
	commitmentService := commitments.NewService(commitments.NewRepository(pool))
	codeService := codes.NewService(codes.NewRepository(pool))

	apRepo := ap.NewRepository(pool)
	laborRepo := labor.NewRepository(pool)
	expenseRepo := expenses.NewRepository(pool)

	costService := costs.NewService(apRepo, laborRepo, expenseRepo)
	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, logger)

	forecastService := forecast.NewService(forecast.NewRepository(pool), budgetService, commitmentService, costService, periodService, logger)
	revenueService := revenue.NewService(projectService, costService, budgetService, forecastService, periodService, billingService, logger)
	reporter := revenue.NewReporter(revenueService, projectService, settingService, billingService)

	journalRepo := journal.NewRepository(pool)
	composer := journal.NewComposer(accountService, codeService)
	journalService := journal.NewService(journalRepo, composer, settingService,
		apRepo, billingRepo, laborRepo, expenseRepo,
		revenueService, billingService,
		projectService, periodService,
		auditLogger, logger)
	validator := journal.NewValidator(journalRepo, apRepo, billingRepo, settingService)

	integrityJob := jobs.NewIntegrityScanJob(periodService, journalService, validator, logger, metrics)
	warmupJob := jobs.NewWIPWarmupJob(periodService, reporter, logger, metrics)

	integrityTask, err := jobs.NewIntegrityScanTask(jobs.IntegrityScanPayload{})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewWIPWarmupTask(jobs.WIPWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerIntegrityScan, Handler: integrityJob.Handle},
			{Type: jobs.TaskWIPWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: integrityTask},
			{Spec: "30 5 * * *", Task: warmupTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
