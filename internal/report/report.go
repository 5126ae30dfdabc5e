// Package report turns a user's month into tabular exports: the transaction ledger and the
// budget report. Tables are rendered by the CSV and XLSX writers in this package and by the
// Google Sheets sink.
package report

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	applog "fintrack/internal/log"
)

type Status string

const (
	StatusUnder Status = "UNDER"
	StatusClose Status = "CLOSE"
	StatusOver  Status = "OVER"
)

var (
	closePercent = decimal.NewFromInt(80)
	overPercent  = decimal.NewFromInt(100)
)

var (
	TransactionHeader = []string{"date", "accountName", "categoryName", "type", "amount", "description", "merchantName"}
	BudgetHeader      = []string{"categoryName", "spent", "monthlyLimit", "remaining", "status"}
)

// Table is one rendered report. Cells are strings or decimal.Decimal amounts.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// BudgetStatus classifies spent against limit: OVER from 100%, CLOSE from 80%.
func BudgetStatus(spent, limit decimal.Decimal) Status {
	if !limit.IsPositive() {
		if spent.IsPositive() {
			return StatusOver
		}
		return StatusUnder
	}
	pct := spent.Div(limit).Mul(decimal.NewFromInt(100))
	switch {
	case pct.GreaterThanOrEqual(overPercent):
		return StatusOver
	case pct.GreaterThanOrEqual(closePercent):
		return StatusClose
	default:
		return StatusUnder
	}
}

// BudgetTable renders the budgets of a computed summary.
func BudgetTable(s core.DashboardSummary, m core.Month) Table {
	rows := make([][]any, 0, len(s.Budgets))
	for _, b := range s.Budgets {
		rows = append(rows, []any{
			b.CategoryName,
			b.Spent,
			b.MonthlyLimit,
			b.MonthlyLimit.Sub(b.Spent),
			string(BudgetStatus(b.Spent, b.MonthlyLimit)),
		})
	}
	return Table{Title: m.String() + " Budgets", Header: BudgetHeader, Rows: rows}
}

// TransactionTable renders transactions oldest first. Transactions without a category get an
// empty category name.
func TransactionTable(txs []core.Transaction, accounts []core.Account, categories []core.Category, m core.Month) Table {
	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	rows := make([][]any, 0, len(sorted))
	for _, t := range sorted {
		var account, category string
		if t.AccountID != nil {
			account = accountNames[*t.AccountID]
		}
		if t.CategoryID != nil {
			name, ok := categoryNames[*t.CategoryID]
			if !ok {
				name = "Unknown"
			}
			category = name
		}
		rows = append(rows, []any{
			t.Date.UTC().Format(time.DateOnly),
			account,
			category,
			string(t.Type),
			t.Amount,
			t.Description,
			t.MerchantName,
		})
	}
	return Table{Title: m.String() + " Transactions", Header: TransactionHeader, Rows: rows}
}

// Generator loads a user's month and renders report tables.
type Generator struct {
	src       dashboard.Source
	summaries *dashboard.Engine
	logger    *applog.Logger
}

func NewGenerator(src dashboard.Source, logger *applog.Logger) *Generator {
	if logger == nil {
		logger = applog.Default()
	}
	return &Generator{
		src:       src,
		summaries: dashboard.NewEngine(src, logger),
		logger:    logger.WithComponent(applog.ComponentReport),
	}
}

// Monthly is the budget report for month ("YYYYMM").
func (g *Generator) Monthly(ctx context.Context, userID, month string) (Table, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return Table{}, err
	}
	summary, err := g.summaries.Summary(ctx, userID, month)
	if err != nil {
		return Table{}, fmt.Errorf("monthly report: %w", err)
	}
	t := BudgetTable(summary, m)
	g.logger.DebugContext(ctx, "Monthly report built",
		applog.FieldUserID, userID, applog.FieldMonth, m.Key(), applog.FieldCount, len(t.Rows))
	return t, nil
}

// Transactions is the transaction ledger for month ("YYYYMM").
func (g *Generator) Transactions(ctx context.Context, userID, month string) (Table, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return Table{}, err
	}
	start, end := m.Bounds()
	txs, err := g.src.ListTransactions(ctx, userID, core.TransactionFilter{From: start, To: end})
	if err != nil {
		return Table{}, fmt.Errorf("transaction report: %w", err)
	}
	accounts, err := g.src.ListAccounts(ctx, userID)
	if err != nil {
		return Table{}, fmt.Errorf("transaction report: %w", err)
	}
	categories, err := g.src.ListVisibleCategories(ctx, userID)
	if err != nil {
		return Table{}, fmt.Errorf("transaction report: %w", err)
	}
	t := TransactionTable(txs, accounts, categories, m)
	g.logger.DebugContext(ctx, "Transaction report built",
		applog.FieldUserID, userID, applog.FieldMonth, m.Key(), applog.FieldCount, len(t.Rows))
	return t, nil
}
