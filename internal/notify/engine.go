// Package notify raises budget-threshold and goal-reached notifications.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ThresholdRatio is the share of a monthly limit that triggers a budget alert.
var ThresholdRatio = decimal.RequireFromString("0.8")

const (
	budgetTitle = "Budget Threshold Reached"
	goalTitle   = "Goal Reached!"
)

// Repository is the subset of storage.Repository the engine reads and writes.
type Repository interface {
	FindActiveBudget(ctx context.Context, userID, categoryID string) (core.Budget, error)
	SumDebits(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error)
	HasNotification(ctx context.Context, userID, dedupKey string) (bool, error)
	InsertNotification(ctx context.Context, n core.Notification) (bool, error)
}

type Engine struct {
	repo   Repository
	locks  *keyLock
	logger *applog.Logger
	now    func() time.Time
}

func NewEngine(repo Repository, logger *applog.Logger) *Engine {
	if logger == nil {
		logger = applog.Default()
	}
	return &Engine{
		repo:   repo,
		locks:  newKeyLock(),
		logger: logger.WithComponent(applog.ComponentNotify),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithRepository returns an engine that reads and writes through repo, typically the
// transaction-scoped repository of a unit of work. The key locks are shared with e.
func (e *Engine) WithRepository(repo Repository) *Engine {
	c := *e
	c.repo = repo
	return &c
}

// DedupKey identifies the one budget alert a user may get per category and month.
func DedupKey(categoryID string, month core.Month) string {
	return fmt.Sprintf("%s:%s:%s", core.BudgetThreshold, categoryID, month)
}

// CheckBudgetThreshold raises a notification the first time the user's debits in the category
// reach ThresholdRatio of its active budget during the month containing txDate.
func (e *Engine) CheckBudgetThreshold(ctx context.Context, userID string, categoryID *string, txDate time.Time) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	category := *categoryID
	month := core.MonthOf(txDate)

	budget, err := e.repo.FindActiveBudget(ctx, userID, category)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find budget: %w", err)
	}

	start, end := month.Bounds()
	spent, err := e.repo.SumDebits(ctx, userID, category, start, end)
	if err != nil {
		return fmt.Errorf("sum spending: %w", err)
	}
	if spent.LessThan(budget.MonthlyLimit.Mul(ThresholdRatio)) {
		return nil
	}

	key := DedupKey(category, month)
	unlock := e.locks.Lock(userID + "|" + key)
	defer unlock()

	exists, err := e.repo.HasNotification(ctx, userID, key)
	if err != nil {
		return fmt.Errorf("check notification %s: %w", key, err)
	}
	if exists {
		return nil
	}

	data, err := json.Marshal(struct {
		CategoryID string `json:"categoryId"`
		Month      string `json:"month"`
	}{category, month.String()})
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	n := core.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      core.BudgetThreshold,
		Title:     budgetTitle,
		Message:   fmt.Sprintf("You've spent %s%% of your budget for this category this month.", core.Percent(spent, budget.MonthlyLimit)),
		DataJSON:  string(data),
		DedupKey:  key,
		CreatedAt: e.now(),
	}
	inserted, err := e.repo.InsertNotification(ctx, n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if !inserted {
		e.logger.DebugContext(ctx, "Budget alert already raised elsewhere",
			applog.FieldUserID, userID, applog.FieldDedupKey, key)
		return nil
	}

	e.logger.InfoContext(ctx, "Budget threshold reached",
		applog.FieldUserID, userID,
		applog.FieldCategoryID, category,
		applog.FieldMonth, month.String(),
		applog.FieldSpent, spent.StringFixed(2),
		applog.FieldLimit, budget.MonthlyLimit.StringFixed(2))
	return nil
}

// CheckGoalCompletion raises a notification when an update moved the goal from ACTIVE to
// COMPLETED. Goal notifications carry no dedup key.
func (e *Engine) CheckGoalCompletion(ctx context.Context, userID string, goal core.SavingsGoal, wasActive bool) error {
	if !wasActive || goal.Status != core.GoalCompleted {
		return nil
	}

	data, err := json.Marshal(struct {
		GoalID string `json:"goalId"`
	}{goal.ID})
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	n := core.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      core.GoalReached,
		Title:     goalTitle,
		Message:   "Congratulations! You've reached your goal: " + goal.Name,
		DataJSON:  string(data),
		CreatedAt: e.now(),
	}
	if _, err := e.repo.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	e.logger.InfoContext(ctx, "Savings goal reached",
		applog.FieldUserID, userID, applog.FieldGoalID, goal.ID)
	return nil
}
