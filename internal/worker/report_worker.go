package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/sheets"
)

// UserLister enumerates users that have anything to report on.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ReportWorker exports last month's reports for every user on a cron schedule. Files land in
// <dir>/<YYYYMM>/; the budget report is also appended to a spreadsheet when a sink is set.
type ReportWorker struct {
	users     UserLister
	generator *report.Generator
	sink      sheets.ReportWriter
	dir       string
	logger    *applog.Logger
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReportWorker(users UserLister, generator *report.Generator, sink sheets.ReportWriter, dir string, logger *applog.Logger) *ReportWorker {
	if logger == nil {
		logger = applog.Default()
	}
	return &ReportWorker{
		users:     users,
		generator: generator,
		sink:      sink,
		dir:       dir,
		logger:    logger.WithComponent(applog.ComponentWorker),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the export using a standard five-field cron expression evaluated in UTC.
func (w *ReportWorker) Start(ctx context.Context, schedule string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return fmt.Errorf("report worker is already running")
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(schedule, func() {
		month := core.MonthOf(w.now()).Previous()
		if _, err := w.RunOnce(ctx, month); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled report export failed",
				applog.FieldMonth, month.Key(), applog.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	c.Start()
	w.cron = c

	w.logger.InfoContext(ctx, "Report worker started", "schedule", schedule, "dir", w.dir)
	return nil
}

// Stop prevents new runs and waits for a running export to finish.
func (w *ReportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		w.logger.InfoContext(ctx, "Report worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Report worker stop timed out")
		return ctx.Err()
	}
}

// RunOnce exports month for every user and returns how many users were exported. A failing
// user does not stop the others; their errors are joined.
func (w *ReportWorker) RunOnce(ctx context.Context, month core.Month) (int, error) {
	ids, err := w.users.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		errs []error
		done int
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := w.ExportUser(ctx, id, month); err != nil {
			w.logger.WarnContext(ctx, "Report export failed",
				applog.FieldUserID, id, applog.FieldMonth, month.Key(), applog.FieldError, err)
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			continue
		}
		done++
	}

	w.logger.InfoContext(ctx, "Report export finished",
		applog.FieldMonth, month.Key(), applog.FieldCount, done, "failed", len(errs))
	return done, errors.Join(errs...)
}

// ExportUser writes <user>-transactions.csv, <user>-budgets.csv and <user>.xlsx for month.
func (w *ReportWorker) ExportUser(ctx context.Context, userID string, month core.Month) error {
	budgets, err := w.generator.Monthly(ctx, userID, month.Key())
	if err != nil {
		return err
	}
	txs, err := w.generator.Transactions(ctx, userID, month.Key())
	if err != nil {
		return err
	}

	dir := filepath.Join(w.dir, month.Key())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{userID + "-transactions.csv", func(out io.Writer) error { return report.WriteCSV(out, txs) }},
		{userID + "-budgets.csv", func(out io.Writer) error { return report.WriteCSV(out, budgets) }},
		{userID + ".xlsx", func(out io.Writer) error { return report.WriteXLSX(out, budgets, txs) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}

	if w.sink != nil {
		budgets.Title = userID + " " + budgets.Title
		if _, err := w.sink.AppendReport(ctx, sheets.TabName(month), budgets); err != nil {
			return fmt.Errorf("append to sheet: %w", err)
		}
	}

	w.logger.DebugContext(ctx, "Reports exported",
		applog.FieldUserID, userID, applog.FieldMonth, month.Key(), applog.FieldOperation, applog.OpExport)
	return nil
}

// writeFile writes through a temp file in the same directory so readers never see a partial report.
func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
