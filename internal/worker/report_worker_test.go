package worker

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	cat := storage.CategoryGroceries
	for i, user := range []string{alice, bob} {
		tx := core.Transaction{
			ID: user[:8] + "-tx", UserID: user, CategoryID: &cat, Type: core.Debit,
			Amount: decimal.NewFromInt(int64(10 * (i + 1))), MerchantName: "Loblaws",
			Date: time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		}
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	b := core.Budget{ID: "b-alice", UserID: alice, CategoryID: cat, MonthlyLimit: decimal.NewFromInt(10), IsActive: true}
	if err := s.CreateBudget(ctx, b); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunOnceExportsEveryUser(t *testing.T) {
	store := seededStore(t)
	sink := sheetsmem.New()
	dir := t.TempDir()
	w := NewReportWorker(store, report.NewGenerator(store, applog.Discard()), sink, dir, applog.Discard())

	month := core.Month{Year: 2025, Month: time.May}
	n, err := w.RunOnce(context.Background(), month)
	if err != nil || n != 2 {
		t.Fatalf("RunOnce = %d, %v; want 2, nil", n, err)
	}

	for _, user := range []string{alice, bob} {
		for _, name := range []string{user + "-transactions.csv", user + "-budgets.csv", user + ".xlsx"} {
			if _, err := os.Stat(filepath.Join(dir, "202505", name)); err != nil {
				t.Errorf("missing %s: %v", name, err)
			}
		}
	}

	f, err := os.Open(filepath.Join(dir, "202505", alice+"-budgets.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[1][0] != "Groceries" || records[1][4] != "OVER" {
		t.Errorf("budget csv = %v", records)
	}

	rows := sink.Rows("2025-05 Report")
	if len(rows) == 0 || rows[0][0] != alice+" 2025-05 Budgets" {
		t.Errorf("sheet rows = %v", rows)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "202505", ".report-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestRunOnceWithoutSink(t *testing.T) {
	store := seededStore(t)
	w := NewReportWorker(store, report.NewGenerator(store, applog.Discard()), nil, t.TempDir(), applog.Discard())
	if n, err := w.RunOnce(context.Background(), core.Month{Year: 2025, Month: time.May}); err != nil || n != 2 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
}

type failingUsers struct{}

func (failingUsers) ListUserIDs(context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func TestRunOnceListError(t *testing.T) {
	w := NewReportWorker(failingUsers{}, report.NewGenerator(memory.New(), applog.Discard()), nil, t.TempDir(), applog.Discard())
	if _, err := w.RunOnce(context.Background(), core.Month{Year: 2025, Month: time.May}); err == nil {
		t.Fatal("expected list error")
	}
}

func TestRunOnceJoinsPerUserErrors(t *testing.T) {
	store := seededStore(t)
	// a file where the month directory should be makes every export fail
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "202505"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewReportWorker(store, report.NewGenerator(store, applog.Discard()), nil, dir, applog.Discard())
	n, err := w.RunOnce(context.Background(), core.Month{Year: 2025, Month: time.May})
	if n != 0 || err == nil {
		t.Fatalf("RunOnce = %d, %v; want 0 and an error", n, err)
	}
}

func TestStartStop(t *testing.T) {
	store := memory.New()
	w := NewReportWorker(store, report.NewGenerator(store, applog.Discard()), nil, t.TempDir(), applog.Discard())
	ctx := context.Background()

	if err := w.Start(ctx, "not a schedule"); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if err := w.Start(ctx, "0 6 1 * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx, "0 6 1 * *"); err == nil {
		t.Error("expected error when already running")
	}
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := w.Stop(ctx); err != nil {
		t.Errorf("Stop when not running: %v", err)
	}
}
