package memory

import (
	"context"
	"testing"

	"fintrack/internal/report"
)

func TestAppendReportAccumulates(t *testing.T) {
	s := New()
	table := report.Table{Title: "2025-06 Budgets", Header: report.BudgetHeader, Rows: [][]any{{"Rent", "1.00", "2.00", "1.00", "UNDER"}}}

	ref, err := s.AppendReport(context.Background(), "2025-06 Report", table)
	if err != nil || ref != "mem:2025-06 Report!A1:A4" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, _ = s.AppendReport(context.Background(), "2025-06 Report", table)
	if ref != "mem:2025-06 Report!A5:A8" {
		t.Errorf("second ref = %q", ref)
	}
	if rows := s.Rows("2025-06 Report"); len(rows) != 8 || rows[0][0] != "2025-06 Budgets" {
		t.Errorf("rows = %v", rows)
	}
	if rows := s.Rows("other"); len(rows) != 0 {
		t.Errorf("unknown tab has rows: %v", rows)
	}
}
