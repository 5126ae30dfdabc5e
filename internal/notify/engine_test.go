package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

const user = "11111111-1111-4111-8111-111111111111"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addBudget(t *testing.T, s storage.Repository, category, limit string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateBudget(context.Background(), core.Budget{
		ID: uuid.NewString(), UserID: user, CategoryID: category,
		MonthlyLimit: dec(limit), IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
}

func addDebit(t *testing.T, s storage.Repository, category, amount string, date time.Time) {
	t.Helper()
	err := s.CreateTransaction(context.Background(), core.Transaction{
		ID: uuid.NewString(), UserID: user, CategoryID: &category, Type: core.Debit,
		Amount: dec(amount), Date: date, CreatedAt: date, UpdatedAt: date,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

func notifications(t *testing.T, s storage.Repository) []core.Notification {
	t.Helper()
	list, err := s.ListNotifications(context.Background(), user, false)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	return list
}

func TestDedupKey(t *testing.T) {
	got := DedupKey("cat-1", core.Month{Year: 2025, Month: time.February})
	if got != "BUDGET_THRESHOLD:cat-1:2025-02" {
		t.Errorf("DedupKey = %q", got)
	}
}

func TestCheckBudgetThresholdOncePerMonth(t *testing.T) {
	s := memory.New()
	e := NewEngine(s, applog.Discard())
	ctx := context.Background()
	category := storage.CategoryTransport
	date := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	addBudget(t, s, category, "200.00")

	addDebit(t, s, category, "160.00", date)
	if err := e.CheckBudgetThreshold(ctx, user, &category, date); err != nil {
		t.Fatalf("CheckBudgetThreshold: %v", err)
	}
	list := notifications(t, s)
	if len(list) != 1 {
		t.Fatalf("got %d notifications after 160/200, want 1", len(list))
	}
	n := list[0]
	if n.Type != core.BudgetThreshold || n.Title != "Budget Threshold Reached" {
		t.Errorf("notification = %+v", n)
	}
	if n.Message != "You've spent 80.00% of your budget for this category this month." {
		t.Errorf("Message = %q", n.Message)
	}
	var data map[string]string
	if err := json.Unmarshal([]byte(n.DataJSON), &data); err != nil {
		t.Fatalf("DataJSON %q: %v", n.DataJSON, err)
	}
	if data["categoryId"] != category || data["month"] != "2025-06" {
		t.Errorf("DataJSON = %v", data)
	}
	if n.DedupKey != "BUDGET_THRESHOLD:"+category+":2025-06" {
		t.Errorf("DedupKey = %q", n.DedupKey)
	}

	addDebit(t, s, category, "20.00", date.Add(time.Hour))
	if err := e.CheckBudgetThreshold(ctx, user, &category, date.Add(time.Hour)); err != nil {
		t.Fatalf("CheckBudgetThreshold: %v", err)
	}
	if got := len(notifications(t, s)); got != 1 {
		t.Errorf("got %d notifications after second debit, want 1", got)
	}

	next := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	addDebit(t, s, category, "170.00", next)
	if err := e.CheckBudgetThreshold(ctx, user, &category, next); err != nil {
		t.Fatalf("CheckBudgetThreshold: %v", err)
	}
	if got := len(notifications(t, s)); got != 2 {
		t.Errorf("got %d notifications after a new month, want 2", got)
	}
}

func TestCheckBudgetThresholdNoOps(t *testing.T) {
	date := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	groceries := storage.CategoryGroceries
	rent := storage.CategoryRent

	tests := []struct {
		name     string
		category *string
		setup    func(t *testing.T, s storage.Repository)
	}{
		{"nil category", nil, func(t *testing.T, s storage.Repository) {
			addBudget(t, s, groceries, "10.00")
			addDebit(t, s, groceries, "100.00", date)
		}},
		{"no active budget", &rent, func(t *testing.T, s storage.Repository) {
			addDebit(t, s, rent, "2000.00", date)
		}},
		{"just below threshold", &groceries, func(t *testing.T, s storage.Repository) {
			addBudget(t, s, groceries, "100.00")
			addDebit(t, s, groceries, "79.99", date)
		}},
		{"spending in another month", &groceries, func(t *testing.T, s storage.Repository) {
			addBudget(t, s, groceries, "100.00")
			addDebit(t, s, groceries, "500.00", date.AddDate(0, -1, 0))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			tt.setup(t, s)
			if err := NewEngine(s, applog.Discard()).CheckBudgetThreshold(context.Background(), user, tt.category, date); err != nil {
				t.Fatalf("CheckBudgetThreshold: %v", err)
			}
			if got := len(notifications(t, s)); got != 0 {
				t.Errorf("got %d notifications, want 0", got)
			}
		})
	}
}

func TestCheckBudgetThresholdConcurrentChecksInsertOnce(t *testing.T) {
	s := memory.New()
	e := NewEngine(s, applog.Discard())
	category := storage.CategoryShopping
	date := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	addBudget(t, s, category, "100.00")
	addDebit(t, s, category, "95.00", date)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.CheckBudgetThreshold(context.Background(), user, &category, date); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := len(notifications(t, s)); got != 1 {
		t.Fatalf("got %d notifications, want 1", got)
	}
	if e.locks.size() != 0 {
		t.Errorf("key lock table kept %d entries", e.locks.size())
	}
}

// racyRepository reports that no notification exists, as a second process would before the
// first one commits, so only the insert-if-absent write prevents the duplicate.
type racyRepository struct{ *memory.Store }

func (racyRepository) HasNotification(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestCheckBudgetThresholdFallsBackToInsertIfAbsent(t *testing.T) {
	s := memory.New()
	category := storage.CategoryBills
	date := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	addBudget(t, s, category, "50.00")
	addDebit(t, s, category, "50.00", date)

	for i := 0; i < 2; i++ {
		e := NewEngine(racyRepository{s}, applog.Discard())
		if err := e.CheckBudgetThreshold(context.Background(), user, &category, date); err != nil {
			t.Fatalf("CheckBudgetThreshold #%d: %v", i+1, err)
		}
	}
	if got := len(notifications(t, s)); got != 1 {
		t.Fatalf("got %d notifications, want 1", got)
	}
}

func TestCheckBudgetThresholdWithinTx(t *testing.T) {
	s := memory.New()
	e := NewEngine(s, applog.Discard())
	category := storage.CategoryGroceries
	date := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	addBudget(t, s, category, "100.00")

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(r storage.Repository) error {
		addDebit(t, r, category, "90.00", date)
		if err := e.WithRepository(r).CheckBudgetThreshold(context.Background(), user, &category, date); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx = %v, want boom", err)
	}
	if got := len(notifications(t, s)); got != 0 {
		t.Errorf("rolled back transaction left %d notifications", got)
	}
}

func TestCheckGoalCompletion(t *testing.T) {
	goal := core.SavingsGoal{
		ID: "goal-1", UserID: user, Name: "Emergency fund",
		TargetAmount: dec("2000.00"), CurrentAmount: dec("900.00"), Status: core.GoalActive,
	}
	updated := core.GoalPatch{CurrentAmount: ptr(dec("2100.00"))}.Apply(goal).ApplyProgress()
	if updated.Status != core.GoalCompleted {
		t.Fatalf("status = %s, want COMPLETED", updated.Status)
	}
	if !updated.ProgressPercent().Equal(dec("105")) {
		t.Errorf("progress = %s, want 105", updated.ProgressPercent())
	}

	tests := []struct {
		name      string
		goal      core.SavingsGoal
		wasActive bool
		want      int
	}{
		{"active to completed", updated, true, 1},
		{"already completed", updated, false, 0},
		{"still active", goal, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			e := NewEngine(s, applog.Discard())
			if err := e.CheckGoalCompletion(context.Background(), user, tt.goal, tt.wasActive); err != nil {
				t.Fatalf("CheckGoalCompletion: %v", err)
			}
			list := notifications(t, s)
			if len(list) != tt.want {
				t.Fatalf("got %d notifications, want %d", len(list), tt.want)
			}
			if tt.want == 0 {
				return
			}
			n := list[0]
			if n.Type != core.GoalReached || n.Title != "Goal Reached!" ||
				n.Message != "Congratulations! You've reached your goal: Emergency fund" ||
				n.DataJSON != `{"goalId":"goal-1"}` || n.DedupKey != "" {
				t.Errorf("notification = %+v", n)
			}
		})
	}
}

func TestCheckGoalCompletionIsNotDeduplicated(t *testing.T) {
	s := memory.New()
	e := NewEngine(s, applog.Discard())
	goal := core.SavingsGoal{ID: "g", Name: "Bike", Status: core.GoalCompleted}
	for i := 0; i < 2; i++ {
		if err := e.CheckGoalCompletion(context.Background(), user, goal, true); err != nil {
			t.Fatalf("CheckGoalCompletion: %v", err)
		}
	}
	if got := len(notifications(t, s)); got != 2 {
		t.Errorf("got %d notifications, want 2", got)
	}
}

func ptr[T any](v T) *T {
	return &v
}
