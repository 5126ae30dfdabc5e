package main

import (
	"context"
	"flag"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	month := flag.String("month", "", "export this month (YYYYMM) once and exit instead of running on schedule")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting report worker")

	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.MustOpenStore(context.Background(), cfg, logger)
	defer store.Close()

	var sink sheets.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewReportWorker(store, report.NewGenerator(store, logger), sink, cfg.ReportDir, logger)

	if *month != "" {
		m, err := core.ParseMonth(*month)
		if err != nil {
			logger.Error("Invalid -month", applog.FieldError, err, applog.FieldMonth, *month)
			os.Exit(2)
		}
		n, err := w.RunOnce(context.Background(), m)
		if err != nil {
			logger.Error("Report export failed", applog.FieldError, err, applog.FieldCount, n)
			os.Exit(1)
		}
		return
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := w.Stop(ctx); err != nil {
			logger.Error("Report worker shutdown error", applog.FieldError, err)
		}
	})

	if err := w.Start(ctx, cfg.ReportSchedule); err != nil {
		logger.Error("Failed to start report worker", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Report worker stopped")
}
