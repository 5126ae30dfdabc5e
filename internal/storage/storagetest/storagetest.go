// Package storagetest holds behaviour checks shared by every storage.Store implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Run exercises open() against the Repository contract. Each subtest gets a fresh store seeded
// with the default categories and rules.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"SeededDefaults", testSeededDefaults},
		{"CategoryVisibility", testCategoryVisibility},
		{"RuleOrdering", testRuleOrdering},
		{"AccountBalance", testAccountBalance},
		{"TransactionsAndSums", testTransactionsAndSums},
		{"TransactionUpdateDelete", testTransactionUpdateDelete},
		{"Budgets", testBudgets},
		{"Goals", testGoals},
		{"NotificationDedup", testNotificationDedup},
		{"NotificationReadAndPublish", testNotificationReadAndPublish},
		{"WithinTxRollback", testWithinTxRollback},
		{"ListUserIDs", testListUserIDs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func newAccount(t *testing.T, s storage.Repository, userID, balance string) core.Account {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	a := core.Account{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           "Chequing",
		Type:           core.Chequing,
		CurrentBalance: dec(balance),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func newTransaction(t *testing.T, s storage.Repository, userID string, typ core.TransactionType, amount, categoryID string, date time.Time) core.Transaction {
	t.Helper()
	tx := core.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         typ,
		Amount:       dec(amount),
		Description:  "Card purchase",
		MerchantName: "Shop",
		Date:         date,
		CreatedAt:    date,
		UpdatedAt:    date,
	}
	if categoryID != "" {
		tx.CategoryID = ptr(categoryID)
	}
	if err := s.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func testSeededDefaults(t *testing.T, s storage.Store) {
	ctx := context.Background()
	cats, err := s.ListVisibleCategories(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("ListVisibleCategories: %v", err)
	}
	if len(cats) != len(storage.DefaultCategories()) {
		t.Fatalf("got %d categories, want %d", len(cats), len(storage.DefaultCategories()))
	}
	for _, c := range cats {
		if !c.Owner.IsGlobal() || !c.IsDefault {
			t.Errorf("seed category %s should be a global default", c.Name)
		}
	}

	rules, err := s.ListRules(ctx, core.Global())
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	want := storage.DefaultRules()
	if len(rules) != len(want) {
		t.Fatalf("got %d global rules, want %d", len(rules), len(want))
	}
	for i := range want {
		if rules[i].ID != want[i].ID || rules[i].Keyword != want[i].Keyword || rules[i].CategoryID != want[i].CategoryID {
			t.Errorf("rule %d = %+v, want %+v", i, rules[i], want[i])
		}
	}
}

func testCategoryVisibility(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()
	c := core.Category{ID: uuid.NewString(), Owner: core.OwnedBy(alice), Name: "Coffee", Type: core.Expense}
	if err := s.CreateCategory(ctx, c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	got, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if id, ok := got.Owner.UserID(); !ok || id != alice {
		t.Errorf("owner = %v, want %s", got.Owner, alice)
	}

	count := func(userID string) int {
		cats, err := s.ListVisibleCategories(ctx, userID)
		if err != nil {
			t.Fatalf("ListVisibleCategories: %v", err)
		}
		return len(cats)
	}
	seeded := len(storage.DefaultCategories())
	if n := count(alice); n != seeded+1 {
		t.Errorf("alice sees %d categories, want %d", n, seeded+1)
	}
	if n := count(bob); n != seeded {
		t.Errorf("bob sees %d categories, want %d", n, seeded)
	}

	if _, err := s.GetCategory(ctx, uuid.NewString()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetCategory(unknown) error = %v, want ErrNotFound", err)
	}
}

func testRuleOrdering(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rules := []core.Rule{
		{ID: "30000000-0000-4000-8000-000000000003", Keyword: "late", CreatedAt: base.Add(time.Hour)},
		{ID: "30000000-0000-4000-8000-000000000002", Keyword: "tie-b", CreatedAt: base},
		{ID: "30000000-0000-4000-8000-000000000001", Keyword: "tie-a", CreatedAt: base},
	}
	for _, r := range rules {
		r.Owner = core.OwnedBy(user)
		r.CategoryID = storage.CategoryMisc
		if err := s.CreateRule(ctx, r); err != nil {
			t.Fatalf("CreateRule: %v", err)
		}
	}

	got, err := s.ListRules(ctx, core.OwnedBy(user))
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	want := []string{"tie-a", "tie-b", "late"}
	if len(got) != len(want) {
		t.Fatalf("got %d rules, want %d", len(got), len(want))
	}
	for i, kw := range want {
		if got[i].Keyword != kw {
			t.Errorf("rule %d keyword = %q, want %q", i, got[i].Keyword, kw)
		}
	}

	if other, _ := s.ListRules(ctx, core.OwnedBy(uuid.NewString())); len(other) != 0 {
		t.Errorf("another user sees %d rules, want 0", len(other))
	}

	if err := s.DeleteRule(ctx, got[0].ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if _, err := s.GetRule(ctx, got[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetRule after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteRule(ctx, got[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteRule error = %v, want ErrNotFound", err)
	}
}

func testAccountBalance(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	a := newAccount(t, s, user, "100.00")

	for _, delta := range []string{"-25.50", "0.25"} {
		if err := s.AdjustAccountBalance(ctx, a.ID, dec(delta)); err != nil {
			t.Fatalf("AdjustAccountBalance(%s): %v", delta, err)
		}
	}
	got, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.CurrentBalance.Equal(dec("74.75")) {
		t.Errorf("balance = %s, want 74.75", got.CurrentBalance)
	}

	accounts, err := s.ListAccounts(ctx, user)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("ListAccounts = %d, %v; want 1 account", len(accounts), err)
	}
	if err := s.AdjustAccountBalance(ctx, uuid.NewString(), dec("1")); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AdjustAccountBalance(unknown) error = %v, want ErrNotFound", err)
	}
}

func testTransactionsAndSums(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	month := core.Month{Year: 2025, Month: time.January}
	start, end := month.Bounds()

	newTransaction(t, s, user, core.Debit, "10.00", storage.CategoryGroceries, start)
	newTransaction(t, s, user, core.Debit, "20.50", storage.CategoryGroceries, end)
	newTransaction(t, s, user, core.Debit, "99.00", storage.CategoryGroceries, end.Add(time.Second))
	newTransaction(t, s, user, core.Debit, "5.00", storage.CategoryGroceries, start.Add(-time.Second))
	newTransaction(t, s, user, core.Credit, "40.00", storage.CategoryGroceries, start.Add(time.Hour))
	newTransaction(t, s, user, core.Debit, "7.00", storage.CategoryTransport, start.Add(time.Hour))
	newTransaction(t, s, uuid.NewString(), core.Debit, "1000.00", storage.CategoryGroceries, start.Add(time.Hour))

	sum, err := s.SumDebits(ctx, user, storage.CategoryGroceries, start, end)
	if err != nil {
		t.Fatalf("SumDebits: %v", err)
	}
	if !sum.Equal(dec("30.50")) {
		t.Errorf("SumDebits = %s, want 30.50", sum)
	}

	inMonth, err := s.ListTransactions(ctx, user, core.TransactionFilter{From: start, To: end})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(inMonth) != 4 {
		t.Errorf("month listing has %d transactions, want 4", len(inMonth))
	}
	for i := 1; i < len(inMonth); i++ {
		if inMonth[i].Date.After(inMonth[i-1].Date) {
			t.Errorf("listing not newest first at %d", i)
		}
	}

	min := dec("20.00")
	big, err := s.ListTransactions(ctx, user, core.TransactionFilter{MinAmount: &min, CategoryID: storage.CategoryGroceries})
	if err != nil {
		t.Fatalf("ListTransactions(min): %v", err)
	}
	if len(big) != 3 {
		t.Errorf("min amount listing has %d transactions, want 3", len(big))
	}

	found, err := s.ListTransactions(ctx, user, core.TransactionFilter{Search: "PURCH"})
	if err != nil {
		t.Fatalf("ListTransactions(search): %v", err)
	}
	if len(found) != 6 {
		t.Errorf("search matched %d transactions, want 6", len(found))
	}
}

func testTransactionUpdateDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	date := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	tx := newTransaction(t, s, user, core.Debit, "12.34", "", date)

	got, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.CategoryID != nil || got.AccountID != nil {
		t.Errorf("expected nil account and category, got %v %v", got.AccountID, got.CategoryID)
	}
	if !got.Date.Equal(date) || !got.Amount.Equal(dec("12.34")) {
		t.Errorf("round trip = %v %s", got.Date, got.Amount)
	}

	got.CategoryID = ptr(storage.CategoryShopping)
	got.Description = "Gift"
	got.Date = date.AddDate(0, 0, 1)
	got.UpdatedAt = time.Now().UTC()
	if err := s.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	updated, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if updated.CategoryID == nil || *updated.CategoryID != storage.CategoryShopping || updated.Description != "Gift" {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.Date.Equal(date.AddDate(0, 0, 1)) {
		t.Errorf("date = %v, want %v", updated.Date, date.AddDate(0, 0, 1))
	}

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := s.GetTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction after delete error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateTransaction(ctx, got); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction after delete error = %v, want ErrNotFound", err)
	}
}

func testBudgets(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(limit string, active bool, created time.Time) core.Budget {
		b := core.Budget{
			ID: uuid.NewString(), UserID: user, CategoryID: storage.CategoryGroceries,
			MonthlyLimit: dec(limit), IsActive: active, CreatedAt: created, UpdatedAt: created,
		}
		if err := s.CreateBudget(ctx, b); err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
		return b
	}
	mk("50.00", false, base)
	oldest := mk("200.00", true, base.Add(time.Hour))
	mk("300.00", true, base.Add(2*time.Hour))

	got, err := s.FindActiveBudget(ctx, user, storage.CategoryGroceries)
	if err != nil {
		t.Fatalf("FindActiveBudget: %v", err)
	}
	if got.ID != oldest.ID {
		t.Errorf("FindActiveBudget = %s, want oldest active %s", got.ID, oldest.ID)
	}
	if _, err := s.FindActiveBudget(ctx, user, storage.CategoryRent); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FindActiveBudget(no budget) error = %v, want ErrNotFound", err)
	}

	all, _ := s.ListBudgets(ctx, user, false)
	active, _ := s.ListBudgets(ctx, user, true)
	if len(all) != 3 || len(active) != 2 {
		t.Errorf("ListBudgets = %d all, %d active; want 3, 2", len(all), len(active))
	}

	oldest.IsActive = false
	oldest.MonthlyLimit = dec("250.00")
	oldest.UpdatedAt = time.Now().UTC()
	if err := s.UpdateBudget(ctx, oldest); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	reloaded, err := s.GetBudget(ctx, oldest.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if reloaded.IsActive || !reloaded.MonthlyLimit.Equal(dec("250")) {
		t.Errorf("update not applied: %+v", reloaded)
	}

	if err := s.DeleteBudget(ctx, oldest.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := s.GetBudget(ctx, oldest.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetBudget after delete error = %v, want ErrNotFound", err)
	}
}

func testGoals(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	g := core.SavingsGoal{
		ID: uuid.NewString(), UserID: user, Name: "Trip",
		TargetAmount: dec("1000.00"), CurrentAmount: dec("100.00"),
		Status: core.GoalActive, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	got, err := s.GetGoal(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGoal: %v", err)
	}
	if got.TargetDate != nil {
		t.Errorf("TargetDate = %v, want nil", got.TargetDate)
	}

	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got.TargetDate = &due
	got.CurrentAmount = dec("1000.00")
	got.Status = core.GoalCompleted
	if err := s.UpdateGoal(ctx, got); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	goals, err := s.ListGoals(ctx, user)
	if err != nil || len(goals) != 1 {
		t.Fatalf("ListGoals = %d, %v; want 1 goal", len(goals), err)
	}
	if goals[0].Status != core.GoalCompleted || goals[0].TargetDate == nil || !goals[0].TargetDate.Equal(due) {
		t.Errorf("update not applied: %+v", goals[0])
	}

	if err := s.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if err := s.DeleteGoal(ctx, g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteGoal error = %v, want ErrNotFound", err)
	}
}

func newNotification(userID, dedupKey string, created time.Time) core.Notification {
	return core.Notification{
		ID: uuid.NewString(), UserID: userID, Type: core.BudgetThreshold,
		Title: "Budget Alert", Message: "msg", DataJSON: "{}",
		DedupKey: dedupKey, CreatedAt: created,
	}
}

func testNotificationDedup(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()
	now := time.Now().UTC()
	key := "BUDGET_THRESHOLD:" + storage.CategoryGroceries + ":2025-01"

	steps := []struct {
		user, key string
		want      bool
	}{
		{alice, key, true},
		{alice, key, false},
		{bob, key, true},
		{alice, "", true},
		{alice, "", true},
	}
	for i, st := range steps {
		inserted, err := s.InsertNotification(ctx, newNotification(st.user, st.key, now))
		if err != nil {
			t.Fatalf("step %d: InsertNotification: %v", i, err)
		}
		if inserted != st.want {
			t.Errorf("step %d: inserted = %v, want %v", i, inserted, st.want)
		}
	}

	if ok, err := s.HasNotification(ctx, alice, key); err != nil || !ok {
		t.Errorf("HasNotification = %v, %v; want true", ok, err)
	}
	if ok, _ := s.HasNotification(ctx, alice, "BUDGET_THRESHOLD:x:2025-02"); ok {
		t.Error("HasNotification reported an unknown key")
	}

	list, err := s.ListNotifications(ctx, alice, false)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("alice has %d notifications, want 3", len(list))
	}
}

func testNotificationReadAndPublish(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()
	base := time.Now().UTC().Truncate(time.Second)

	a1 := newNotification(alice, "", base)
	a2 := newNotification(alice, "", base.Add(time.Second))
	b1 := newNotification(bob, "", base.Add(2*time.Second))
	for _, n := range []core.Notification{a1, a2, b1} {
		if _, err := s.InsertNotification(ctx, n); err != nil {
			t.Fatalf("InsertNotification: %v", err)
		}
	}

	n, err := s.MarkNotificationsRead(ctx, alice, []string{a1.ID, b1.ID})
	if err != nil {
		t.Fatalf("MarkNotificationsRead: %v", err)
	}
	if n != 1 {
		t.Errorf("marked %d notifications, want 1", n)
	}
	unread, _ := s.ListNotifications(ctx, alice, true)
	if len(unread) != 1 || unread[0].ID != a2.ID {
		t.Errorf("alice unread = %+v, want only %s", unread, a2.ID)
	}
	if bobUnread, _ := s.ListNotifications(ctx, bob, true); len(bobUnread) != 1 {
		t.Error("marking alice's notifications touched bob's")
	}

	pending, err := s.ListUnpublishedNotifications(ctx, 2)
	if err != nil {
		t.Fatalf("ListUnpublishedNotifications: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a1.ID || pending[1].ID != a2.ID {
		t.Fatalf("pending = %+v, want the two oldest", pending)
	}
	if err := s.MarkNotificationsPublished(ctx, []string{a1.ID, a2.ID}, base); err != nil {
		t.Fatalf("MarkNotificationsPublished: %v", err)
	}
	rest, _ := s.ListUnpublishedNotifications(ctx, 10)
	if len(rest) != 1 || rest[0].ID != b1.ID {
		t.Errorf("remaining = %+v, want only %s", rest, b1.ID)
	}
}

func testWithinTxRollback(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.NewString()
	a := newAccount(t, s, user, "10.00")
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(r storage.Repository) error {
		if err := r.AdjustAccountBalance(ctx, a.ID, dec("-5.00")); err != nil {
			return err
		}
		newTransaction(t, r, user, core.Debit, "5.00", storage.CategoryGroceries, time.Now().UTC())
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx error = %v, want boom", err)
	}
	got, _ := s.GetAccount(ctx, a.ID)
	if !got.CurrentBalance.Equal(dec("10")) {
		t.Errorf("balance after rollback = %s, want 10", got.CurrentBalance)
	}
	if txs, _ := s.ListTransactions(ctx, user, core.TransactionFilter{}); len(txs) != 0 {
		t.Errorf("rollback left %d transactions", len(txs))
	}

	err = s.WithinTx(ctx, func(r storage.Repository) error {
		return r.AdjustAccountBalance(ctx, a.ID, dec("-5.00"))
	})
	if err != nil {
		t.Fatalf("WithinTx commit: %v", err)
	}
	got, _ = s.GetAccount(ctx, a.ID)
	if !got.CurrentBalance.Equal(dec("5")) {
		t.Errorf("balance after commit = %s, want 5", got.CurrentBalance)
	}
}

func testListUserIDs(t *testing.T, s storage.Store) {
	ctx := context.Background()
	withTx := "00000000-0000-4000-8000-0000000000a1"
	withBudget := "00000000-0000-4000-8000-0000000000a2"
	newTransaction(t, s, withTx, core.Debit, "1.00", "", time.Now().UTC())
	newTransaction(t, s, withTx, core.Debit, "2.00", "", time.Now().UTC())
	now := time.Now().UTC()
	err := s.CreateBudget(ctx, core.Budget{
		ID: uuid.NewString(), UserID: withBudget, CategoryID: storage.CategoryRent,
		MonthlyLimit: dec("1500"), IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	ids, err := s.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != withTx || ids[1] != withBudget {
		t.Errorf("ListUserIDs = %v, want [%s %s]", ids, withTx, withBudget)
	}
}
