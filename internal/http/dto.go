package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Wire shapes. Amounts travel as strings with two decimals so no float ever touches money.

type accountDTO struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	CurrentBalance string    `json:"currentBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toAccount(a core.Account) accountDTO {
	return accountDTO{
		ID: a.ID, UserID: a.UserID, Name: a.Name, Type: string(a.Type),
		CurrentBalance: money(a.CurrentBalance), CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

type categoryDTO struct {
	ID        string  `json:"id"`
	UserID    *string `json:"userId"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	IsDefault bool    `json:"isDefault"`
}

func toCategory(c core.Category) categoryDTO {
	return categoryDTO{ID: c.ID, UserID: ownerID(c.Owner), Name: c.Name, Type: string(c.Type), IsDefault: c.IsDefault}
}

type ruleDTO struct {
	ID         string    `json:"id"`
	UserID     *string   `json:"userId"`
	Keyword    string    `json:"keyword"`
	CategoryID string    `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toRule(r core.Rule) ruleDTO {
	return ruleDTO{ID: r.ID, UserID: ownerID(r.Owner), Keyword: r.Keyword, CategoryID: r.CategoryID, CreatedAt: r.CreatedAt}
}

type transactionDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	AccountID    *string   `json:"accountId"`
	CategoryID   *string   `json:"categoryId"`
	Type         string    `json:"type"`
	Amount       string    `json:"amount"`
	Description  string    `json:"description"`
	MerchantName string    `json:"merchantName"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toTransaction(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID: t.ID, UserID: t.UserID, AccountID: t.AccountID, CategoryID: t.CategoryID,
		Type: string(t.Type), Amount: money(t.Amount), Description: t.Description,
		MerchantName: t.MerchantName, Date: t.Date, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

type budgetDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CategoryID   string    `json:"categoryId"`
	MonthlyLimit string    `json:"monthlyLimit"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toBudget(b core.Budget) budgetDTO {
	return budgetDTO{
		ID: b.ID, UserID: b.UserID, CategoryID: b.CategoryID, MonthlyLimit: money(b.MonthlyLimit),
		IsActive: b.IsActive, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

type goalDTO struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Name            string     `json:"name"`
	TargetAmount    string     `json:"targetAmount"`
	CurrentAmount   string     `json:"currentAmount"`
	TargetDate      *time.Time `json:"targetDate"`
	Status          string     `json:"status"`
	ProgressPercent string     `json:"progressPercent"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toGoal(g core.SavingsGoal) goalDTO {
	return goalDTO{
		ID: g.ID, UserID: g.UserID, Name: g.Name,
		TargetAmount: money(g.TargetAmount), CurrentAmount: money(g.CurrentAmount),
		TargetDate: g.TargetDate, Status: string(g.Status), ProgressPercent: money(g.ProgressPercent()),
		CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt,
	}
}

type notificationDTO struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
	Read      bool            `json:"read"`
	DataJSON  json.RawMessage `json:"dataJson,omitempty"`
}

func toNotification(n core.Notification) notificationDTO {
	dto := notificationDTO{
		ID: n.ID, UserID: n.UserID, Type: string(n.Type), Title: n.Title,
		Message: n.Message, CreatedAt: n.CreatedAt, Read: n.Read,
	}
	if n.DataJSON != "" && json.Valid([]byte(n.DataJSON)) {
		dto.DataJSON = json.RawMessage(n.DataJSON)
	}
	return dto
}

type summaryDTO struct {
	Month              string           `json:"month"`
	SpendingByCategory []spendingDTO    `json:"spendingByCategory"`
	DailySpending      []dailyDTO       `json:"dailySpending"`
	Budgets            []budgetUsageDTO `json:"budgets"`
	Accounts           []accountDTO     `json:"accounts"`
	Goals              []goalDTO        `json:"goals"`
	TotalLimit         string           `json:"totalLimit"`
	TotalSpent         string           `json:"totalSpent"`
	SafeToSpend        string           `json:"safeToSpend"`
}

type spendingDTO struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Amount       string `json:"amount"`
	BudgetLimit  string `json:"budgetLimit"`
}

type dailyDTO struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type budgetUsageDTO struct {
	BudgetID     string `json:"budgetId"`
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	MonthlyLimit string `json:"monthlyLimit"`
	Spent        string `json:"spent"`
}

func toSummary(s core.DashboardSummary) summaryDTO {
	out := summaryDTO{
		Month:              s.Month,
		SpendingByCategory: make([]spendingDTO, 0, len(s.SpendingByCategory)),
		DailySpending:      make([]dailyDTO, 0, len(s.DailySpending)),
		Budgets:            make([]budgetUsageDTO, 0, len(s.Budgets)),
		Accounts:           make([]accountDTO, 0, len(s.Accounts)),
		Goals:              make([]goalDTO, 0, len(s.Goals)),
		TotalLimit:         money(s.TotalLimit),
		TotalSpent:         money(s.TotalSpent),
		SafeToSpend:        money(s.SafeToSpend),
	}
	for _, c := range s.SpendingByCategory {
		out.SpendingByCategory = append(out.SpendingByCategory, spendingDTO{
			CategoryID: c.CategoryID, CategoryName: c.CategoryName,
			Amount: money(c.Amount), BudgetLimit: money(c.BudgetLimit),
		})
	}
	for _, d := range s.DailySpending {
		out.DailySpending = append(out.DailySpending, dailyDTO{Date: d.Date.Format(time.DateOnly), Amount: money(d.Amount)})
	}
	for _, b := range s.Budgets {
		out.Budgets = append(out.Budgets, budgetUsageDTO{
			BudgetID: b.BudgetID, CategoryID: b.CategoryID, CategoryName: b.CategoryName,
			MonthlyLimit: money(b.MonthlyLimit), Spent: money(b.Spent),
		})
	}
	for _, a := range s.Accounts {
		out.Accounts = append(out.Accounts, toAccount(a))
	}
	for _, g := range s.Goals {
		dto := toGoal(g.Goal)
		dto.ProgressPercent = money(g.ProgressPercent)
		out.Goals = append(out.Goals, dto)
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func ownerID(o core.Owner) *string {
	if id, ok := o.UserID(); ok {
		return &id
	}
	return nil
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
