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

	"github.com/jobledger/jobledger/internal/accounts"
	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/app"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/budgets"
	closepkg "github.com/jobledger/jobledger/internal/close"
	"github.com/jobledger/jobledger/internal/codes"
	"github.com/jobledger/jobledger/internal/commitments"
	"github.com/jobledger/jobledger/internal/costs"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/observability"
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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	periodService := periods.NewService(periods.NewRepository(pool))
	accountService := accounts.NewService(accounts.NewRepository(pool))
	settingService := settings.NewService(settings.NewRepository(pool))
	projectService := projects.NewService(projects.NewRepository(pool))
	budgetService := budgets.NewService(budgets.NewRepository(pool), logger)
	commitmentService := commitments.NewService(commitments.NewRepository(pool))
	codeService := codes.NewService(codes.NewRepository(pool))

	apRepo := ap.NewRepository(pool)
	apService := ap.NewService(apRepo)
	laborRepo := labor.NewRepository(pool)
	expenseRepo := expenses.NewRepository(pool)

	costService := costs.NewService(apRepo, laborRepo, expenseRepo)
	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, logger)

	forecastService := forecast.NewService(forecast.NewRepository(pool), budgetService, commitmentService, costService, periodService, logger)
	revenueService := revenue.NewService(projectService, costService, budgetService, forecastService, periodService, billingService, logger)
	reporter := revenue.NewReporter(revenueService, projectService, settingService, billingService)
	prefiller := billing.NewPrefiller(revenueService, billingService, settingService, periodService)

	journalRepo := journal.NewRepository(pool)
	composer := journal.NewComposer(accountService, codeService)
	journalService := journal.NewService(journalRepo, composer, settingService,
		apRepo, billingRepo, laborRepo, expenseRepo,
		revenueService, billingService,
		projectService, periodService,
		auditLogger, logger)
	validator := journal.NewValidator(journalRepo, apRepo, billingRepo, settingService)

	locker := shared.NewPeriodLocker(redisClient, cfg.CloseLockTTL)
	closeService := closepkg.NewService(closepkg.NewRepository(pool), journalService, validator, forecastService, locker, logger).
		WithMetrics(metrics).
		WithAudit(auditLogger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,

		PeriodsHandler:  periods.NewHandler(periodService, logger),
		APHandler:       ap.NewHandler(apService, logger),
		CostsHandler:    costs.NewHandler(costService, periodService, logger),
		BudgetsHandler:  budgets.NewHandler(budgetService, periodService, logger),
		ForecastHandler: forecast.NewHandler(forecastService, logger),
		RevenueHandler:  revenue.NewHandler(revenueService, reporter, settingService, logger),
		JournalHandler:  journal.NewHandler(journalService, validator, logger),
		BillingHandler:  billing.NewHandler(billingService, prefiller, logger),
		SettingsHandler: settings.NewHandler(settingService, logger),
		CloseHandler:    closepkg.NewHandler(closeService, logger),
		JobHandler:      jobs.NewHandler(inspector, logger),
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
