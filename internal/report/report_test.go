package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

const userID = "11111111-1111-4111-8111-111111111111"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		spent, limit string
		want         Status
	}{
		{"0", "100", StatusUnder},
		{"79.99", "100", StatusUnder},
		{"80", "100", StatusClose},
		{"99.99", "100", StatusClose},
		{"100", "100", StatusOver},
		{"250", "100", StatusOver},
		{"0", "0", StatusUnder},
		{"5", "0", StatusOver},
	}
	for _, tt := range tests {
		if got := BudgetStatus(dec(tt.spent), dec(tt.limit)); got != tt.want {
			t.Errorf("BudgetStatus(%s, %s) = %s, want %s", tt.spent, tt.limit, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": CSV, "csv": CSV, "xlsx": XLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	acc := core.Account{ID: "acc-1", UserID: userID, Name: "Chequing", Type: core.Chequing, CurrentBalance: dec("1000")}
	if err := s.CreateAccount(ctx, acc); err != nil {
		t.Fatal(err)
	}
	groceries, transport := storage.CategoryGroceries, storage.CategoryTransport
	txs := []core.Transaction{
		{ID: "t2", UserID: userID, AccountID: &acc.ID, CategoryID: &groceries, Type: core.Debit, Amount: dec("85.50"),
			MerchantName: "Loblaws", Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "t1", UserID: userID, AccountID: &acc.ID, CategoryID: &transport, Type: core.Debit, Amount: dec("12"),
			Description: "ride, downtown", MerchantName: "Uber", Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "t3", UserID: userID, Type: core.Credit, Amount: dec("3000"), Description: "Payroll",
			Date: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "t0", UserID: userID, Type: core.Debit, Amount: dec("9"), Date: time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC)},
	}
	for _, tx := range txs {
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	budgets := []core.Budget{
		{ID: "b1", UserID: userID, CategoryID: groceries, MonthlyLimit: dec("100"), IsActive: true},
		{ID: "b2", UserID: userID, CategoryID: transport, MonthlyLimit: dec("200"), IsActive: true},
	}
	for _, b := range budgets {
		if err := s.CreateBudget(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestGeneratorTransactions(t *testing.T) {
	g := NewGenerator(seed(t), applog.Discard())
	table, err := g.Transactions(context.Background(), userID, "202506")
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if table.Title != "2025-06 Transactions" {
		t.Errorf("title = %q", table.Title)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	want := [][]string{
		TransactionHeader,
		{"2025-06-02", "Chequing", "Transport", "DEBIT", "12.00", "ride, downtown", "Uber"},
		{"2025-06-10", "Chequing", "Groceries", "DEBIT", "85.50", "", "Loblaws"},
		{"2025-06-15", "", "", "CREDIT", "3000.00", "Payroll", ""},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %v", len(records), len(want), records)
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("record %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestGeneratorMonthly(t *testing.T) {
	g := NewGenerator(seed(t), applog.Discard())
	table, err := g.Monthly(context.Background(), userID, "202506")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	rows := table.Strings()
	want := [][]string{
		BudgetHeader,
		{"Groceries", "85.50", "100.00", "14.50", "CLOSE"},
		{"Transport", "12.00", "200.00", "188.00", "UNDER"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestGeneratorRejectsBadMonth(t *testing.T) {
	g := NewGenerator(memory.New(), applog.Discard())
	if _, err := g.Monthly(context.Background(), userID, "2025-06"); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("Monthly: %v, want ErrInvalidMonth", err)
	}
	if _, err := g.Transactions(context.Background(), userID, "202513"); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("Transactions: %v, want ErrInvalidMonth", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	budgets := Table{
		Title:  "2025-06 Budgets",
		Header: BudgetHeader,
		Rows:   [][]any{{"Groceries", dec("85.5"), dec("100"), dec("14.5"), "CLOSE"}},
	}
	txs := Table{Title: "2025-06 Transactions", Header: TransactionHeader}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, budgets, txs); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != "2025-06 Budgets" || got[1] != "2025-06 Transactions" {
		t.Fatalf("sheets = %v", got)
	}
	rows, err := f.GetRows("2025-06 Budgets")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "categoryName" || rows[1][0] != "Groceries" || rows[1][1] != "85.5" || rows[1][4] != "CLOSE" {
		t.Errorf("rows = %v", rows)
	}
}

func TestSheetName(t *testing.T) {
	if got := sheetName("", 1); got != "Sheet2" {
		t.Errorf("sheetName empty = %q", got)
	}
	if got := sheetName(strings.Repeat("x", 40), 0); len(got) != 31 {
		t.Errorf("sheetName not truncated: %d", len(got))
	}
}
