// Package dashboard computes the monthly summary shown on the dashboard.
package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const unknownCategory = "Unknown"

// Source is the read side the engine aggregates. storage.Repository satisfies it.
type Source interface {
	ListVisibleCategories(ctx context.Context, userID string) ([]core.Category, error)
	ListTransactions(ctx context.Context, userID string, filter core.TransactionFilter) ([]core.Transaction, error)
	ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]core.Budget, error)
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
}

type Engine struct {
	src    Source
	logger *applog.Logger
}

func NewEngine(src Source, logger *applog.Logger) *Engine {
	if logger == nil {
		logger = applog.Default()
	}
	return &Engine{src: src, logger: logger.WithComponent(applog.ComponentDashboard)}
}

type snapshot struct {
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
	accounts     []core.Account
	goals        []core.SavingsGoal
}

// Summary builds the summary for month, given as "YYYYMM". A malformed month returns an error
// wrapping core.ErrInvalidMonth before anything is read.
func (e *Engine) Summary(ctx context.Context, userID, month string) (core.DashboardSummary, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return core.DashboardSummary{}, err
	}
	start, end := m.Bounds()

	snap, err := e.load(ctx, userID, start, end)
	if err != nil {
		return core.DashboardSummary{}, err
	}

	summary := Build(m, snap.categories, snap.transactions, snap.budgets, snap.accounts, snap.goals)

	e.logger.DebugContext(ctx, "Summary computed",
		applog.FieldUserID, userID,
		applog.FieldMonth, m.Key(),
		applog.FieldCount, len(snap.transactions))
	return summary, nil
}

func (e *Engine) load(ctx context.Context, userID string, start, end time.Time) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.categories, err = e.src.ListVisibleCategories(ctx, userID)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		snap.transactions, err = e.src.ListTransactions(ctx, userID, core.TransactionFilter{From: start, To: end})
		return wrap("transactions", err)
	})
	g.Go(func() (err error) {
		snap.budgets, err = e.src.ListBudgets(ctx, userID, true)
		return wrap("budgets", err)
	})
	g.Go(func() (err error) {
		snap.accounts, err = e.src.ListAccounts(ctx, userID)
		return wrap("accounts", err)
	})
	g.Go(func() (err error) {
		snap.goals, err = e.src.ListGoals(ctx, userID)
		return wrap("goals", err)
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}

// Build aggregates already-loaded rows into a summary. transactions must already be limited to m.
func Build(m core.Month, categories []core.Category, transactions []core.Transaction,
	budgets []core.Budget, accounts []core.Account, goals []core.SavingsGoal) core.DashboardSummary {

	catByID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}

	spentByCategory := map[string]decimal.Decimal{}
	spentByDay := map[time.Time]decimal.Decimal{}
	for _, t := range transactions {
		if t.Type != core.Debit {
			continue
		}
		day := t.Date.UTC().Truncate(24 * time.Hour)
		spentByDay[day] = spentByDay[day].Add(t.Amount)
		if t.CategoryID != nil {
			spentByCategory[*t.CategoryID] = spentByCategory[*t.CategoryID].Add(t.Amount)
		}
	}

	spending := make([]core.CategorySpending, 0, len(spentByCategory))
	rowIndex := make(map[string]int, len(spentByCategory))
	for _, id := range sortedKeys(spentByCategory) {
		amount := spentByCategory[id]
		if amount.IsZero() {
			continue
		}
		name := unknownCategory
		if c, ok := catByID[id]; ok {
			name = c.Name
		}
		rowIndex[id] = len(spending)
		spending = append(spending, core.CategorySpending{
			CategoryID:   id,
			CategoryName: name,
			Amount:       amount,
			BudgetLimit:  decimal.Zero,
		})
	}

	daily := make([]core.DailySpending, 0, len(spentByDay))
	for day, amount := range spentByDay {
		daily = append(daily, core.DailySpending{Date: day, Amount: amount})
	}
	slices.SortFunc(daily, func(a, b core.DailySpending) int { return a.Date.Compare(b.Date) })

	active := slices.Clone(budgets)
	slices.SortFunc(active, func(a, b core.Budget) int {
		if c := strings.Compare(a.CategoryID, b.CategoryID); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	totalLimit, totalSpent := decimal.Zero, decimal.Zero
	usage := make([]core.BudgetUsage, 0, len(active))
	for _, b := range active {
		if !b.IsActive {
			continue
		}
		c, ok := catByID[b.CategoryID]
		if !ok || c.Type != core.Expense {
			continue
		}
		spent := spentByCategory[b.CategoryID]
		totalLimit = totalLimit.Add(b.MonthlyLimit)
		totalSpent = totalSpent.Add(spent)
		usage = append(usage, core.BudgetUsage{
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: c.Name,
			MonthlyLimit: b.MonthlyLimit,
			Spent:        spent,
		})
		if i, ok := rowIndex[b.CategoryID]; ok {
			spending[i].BudgetLimit = b.MonthlyLimit
		}
	}

	safe := totalLimit.Sub(totalSpent)
	if safe.IsNegative() {
		safe = decimal.Zero
	}

	progress := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		progress = append(progress, core.GoalProgress{Goal: g, ProgressPercent: g.ProgressPercent()})
	}

	return core.DashboardSummary{
		Month:              m.Key(),
		SpendingByCategory: spending,
		DailySpending:      daily,
		Budgets:            usage,
		Accounts:           accounts,
		Goals:              progress,
		TotalLimit:         totalLimit,
		TotalSpent:         totalSpent,
		SafeToSpend:        safe,
	}
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
