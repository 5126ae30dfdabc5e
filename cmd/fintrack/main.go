package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/categorize"
	"fintrack/internal/cli"
	"fintrack/internal/dashboard"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.MustOpenStore(context.Background(), cfg, logger)
	defer store.Close()

	categories := categorize.NewEngine(store, logger)
	notifier := notify.NewEngine(store, logger)

	svc := apphttp.Services{
		Accounts:      services.NewAccountService(store, logger),
		Categories:    services.NewCategoryService(store, logger),
		Rules:         services.NewRuleService(store, logger),
		Transactions:  services.NewTransactionService(store, categories, notifier, logger),
		Budgets:       services.NewBudgetService(store, logger),
		Goals:         services.NewGoalService(store, notifier, logger),
		Notifications: services.NewNotificationService(store, logger),
		Dashboard:     dashboard.NewEngine(store, logger),
		Reports:       report.NewGenerator(store, logger),
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, store, svc, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
