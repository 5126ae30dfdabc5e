package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary is a user's financial position for one month. It is computed on demand and never stored.
type DashboardSummary struct {
	Month              string
	SpendingByCategory []CategorySpending
	DailySpending      []DailySpending
	Budgets            []BudgetUsage
	Accounts           []Account
	Goals              []GoalProgress
	TotalLimit         decimal.Decimal
	TotalSpent         decimal.Decimal
	SafeToSpend        decimal.Decimal
}

type CategorySpending struct {
	CategoryID   string
	CategoryName string
	Amount       decimal.Decimal
	BudgetLimit  decimal.Decimal
}

// DailySpending is keyed by the UTC calendar date at midnight.
type DailySpending struct {
	Date   time.Time
	Amount decimal.Decimal
}

type BudgetUsage struct {
	BudgetID     string
	CategoryID   string
	CategoryName string
	MonthlyLimit decimal.Decimal
	Spent        decimal.Decimal
}

type GoalProgress struct {
	Goal            SavingsGoal
	ProgressPercent decimal.Decimal
}
