package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// state holds every table. It does no locking; Store serialises access and WithinTx hands a
// private clone to the callback.
type state struct {
	categories    map[string]core.Category
	rules         map[string]core.Rule
	accounts      map[string]core.Account
	transactions  map[string]core.Transaction
	budgets       map[string]core.Budget
	goals         map[string]core.SavingsGoal
	notifications map[string]core.Notification
}

var _ storage.Repository = (*state)(nil)

func newState() *state {
	return &state{
		categories:    map[string]core.Category{},
		rules:         map[string]core.Rule{},
		accounts:      map[string]core.Account{},
		transactions:  map[string]core.Transaction{},
		budgets:       map[string]core.Budget{},
		goals:         map[string]core.SavingsGoal{},
		notifications: map[string]core.Notification{},
	}
}

func (s *state) clone() *state {
	return &state{
		categories:    maps.Clone(s.categories),
		rules:         maps.Clone(s.rules),
		accounts:      maps.Clone(s.accounts),
		transactions:  maps.Clone(s.transactions),
		budgets:       maps.Clone(s.budgets),
		goals:         maps.Clone(s.goals),
		notifications: maps.Clone(s.notifications),
	}
}

func duplicate(kind, id string) error {
	return fmt.Errorf("create %s: duplicate id %s", kind, id)
}

func missing(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

func byCreated(a, b time.Time, idA, idB string) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	return strings.Compare(idA, idB)
}

func (s *state) ListVisibleCategories(_ context.Context, userID string) ([]core.Category, error) {
	var out []core.Category
	for _, c := range s.categories {
		if c.Owner.VisibleTo(userID) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b core.Category) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *state) GetCategory(_ context.Context, id string) (core.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, missing("category", id)
	}
	return c, nil
}

func (s *state) CreateCategory(_ context.Context, c core.Category) error {
	if _, ok := s.categories[c.ID]; ok {
		return duplicate("category", c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *state) ListRules(_ context.Context, owner core.Owner) ([]core.Rule, error) {
	var out []core.Rule
	for _, r := range s.rules {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b core.Rule) int { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *state) GetRule(_ context.Context, id string) (core.Rule, error) {
	r, ok := s.rules[id]
	if !ok {
		return core.Rule{}, missing("rule", id)
	}
	return r, nil
}

func (s *state) CreateRule(_ context.Context, r core.Rule) error {
	if _, ok := s.rules[r.ID]; ok {
		return duplicate("rule", r.ID)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	s.rules[r.ID] = r
	return nil
}

func (s *state) DeleteRule(_ context.Context, id string) error {
	if _, ok := s.rules[id]; !ok {
		return missing("rule", id)
	}
	delete(s.rules, id)
	return nil
}

func (s *state) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b core.Account) int { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *state) GetAccount(_ context.Context, id string) (core.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, missing("account", id)
	}
	return a, nil
}

func (s *state) CreateAccount(_ context.Context, a core.Account) error {
	if _, ok := s.accounts[a.ID]; ok {
		return duplicate("account", a.ID)
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *state) AdjustAccountBalance(_ context.Context, id string, delta decimal.Decimal) error {
	a, ok := s.accounts[id]
	if !ok {
		return missing("account", id)
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta).Round(2)
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func matchesFilter(t core.Transaction, f core.TransactionFilter) bool {
	if f.AccountID != "" && (t.AccountID == nil || *t.AccountID != f.AccountID) {
		return false
	}
	if f.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != f.CategoryID) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Description), q) && !strings.Contains(strings.ToLower(t.MerchantName), q) {
			return false
		}
	}
	return true
}

func (s *state) ListTransactions(_ context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID && matchesFilter(t, f) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *state) SumDebits(_ context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID != userID || t.Type != core.Debit || t.CategoryID == nil || *t.CategoryID != categoryID {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (s *state) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, missing("transaction", id)
	}
	return t, nil
}

func (s *state) CreateTransaction(_ context.Context, t core.Transaction) error {
	if _, ok := s.transactions[t.ID]; ok {
		return duplicate("transaction", t.ID)
	}
	t.Date = t.Date.UTC()
	s.transactions[t.ID] = t
	return nil
}

func (s *state) UpdateTransaction(_ context.Context, t core.Transaction) error {
	cur, ok := s.transactions[t.ID]
	if !ok {
		return missing("transaction", t.ID)
	}
	cur.CategoryID = t.CategoryID
	cur.Description = t.Description
	cur.MerchantName = t.MerchantName
	cur.Date = t.Date.UTC()
	cur.UpdatedAt = t.UpdatedAt
	s.transactions[t.ID] = cur
	return nil
}

func (s *state) DeleteTransaction(_ context.Context, id string) error {
	if _, ok := s.transactions[id]; !ok {
		return missing("transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

func (s *state) ListBudgets(_ context.Context, userID string, activeOnly bool) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && (!activeOnly || b.IsActive) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b core.Budget) int { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *state) FindActiveBudget(ctx context.Context, userID, categoryID string) (core.Budget, error) {
	budgets, _ := s.ListBudgets(ctx, userID, true)
	for _, b := range budgets {
		if b.CategoryID == categoryID {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("active budget for %s: %w", categoryID, core.ErrNotFound)
}

func (s *state) GetBudget(_ context.Context, id string) (core.Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, missing("budget", id)
	}
	return b, nil
}

func (s *state) CreateBudget(_ context.Context, b core.Budget) error {
	if _, ok := s.budgets[b.ID]; ok {
		return duplicate("budget", b.ID)
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *state) UpdateBudget(_ context.Context, b core.Budget) error {
	cur, ok := s.budgets[b.ID]
	if !ok {
		return missing("budget", b.ID)
	}
	cur.MonthlyLimit = b.MonthlyLimit
	cur.IsActive = b.IsActive
	cur.UpdatedAt = b.UpdatedAt
	s.budgets[b.ID] = cur
	return nil
}

func (s *state) DeleteBudget(_ context.Context, id string) error {
	if _, ok := s.budgets[id]; !ok {
		return missing("budget", id)
	}
	delete(s.budgets, id)
	return nil
}

func (s *state) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	var out []core.SavingsGoal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b core.SavingsGoal) int { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *state) GetGoal(_ context.Context, id string) (core.SavingsGoal, error) {
	g, ok := s.goals[id]
	if !ok {
		return core.SavingsGoal{}, missing("goal", id)
	}
	return g, nil
}

func (s *state) CreateGoal(_ context.Context, g core.SavingsGoal) error {
	if _, ok := s.goals[g.ID]; ok {
		return duplicate("goal", g.ID)
	}
	s.goals[g.ID] = g
	return nil
}

func (s *state) UpdateGoal(_ context.Context, g core.SavingsGoal) error {
	cur, ok := s.goals[g.ID]
	if !ok {
		return missing("goal", g.ID)
	}
	g.UserID = cur.UserID
	g.CreatedAt = cur.CreatedAt
	s.goals[g.ID] = g
	return nil
}

func (s *state) DeleteGoal(_ context.Context, id string) error {
	if _, ok := s.goals[id]; !ok {
		return missing("goal", id)
	}
	delete(s.goals, id)
	return nil
}

func sortNotifications(out []core.Notification, newestFirst bool) {
	slices.SortFunc(out, func(a, b core.Notification) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if newestFirst {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (s *state) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	sortNotifications(out, true)
	return out, nil
}

func (s *state) HasNotification(_ context.Context, userID, dedupKey string) (bool, error) {
	for _, n := range s.notifications {
		if n.UserID == userID && n.DedupKey == dedupKey {
			return true, nil
		}
	}
	return false, nil
}

// InsertNotification mirrors the (user_id, dedup_key) unique index of the SQL schema.
func (s *state) InsertNotification(ctx context.Context, n core.Notification) (bool, error) {
	if _, ok := s.notifications[n.ID]; ok {
		return false, duplicate("notification", n.ID)
	}
	if n.DedupKey != "" {
		if exists, _ := s.HasNotification(ctx, n.UserID, n.DedupKey); exists {
			return false, nil
		}
	}
	s.notifications[n.ID] = n
	return true, nil
}

func (s *state) MarkNotificationsRead(_ context.Context, userID string, ids []string) (int64, error) {
	var changed int64
	for _, id := range ids {
		n, ok := s.notifications[id]
		if !ok || n.UserID != userID {
			continue
		}
		if !n.Read {
			n.Read = true
			s.notifications[id] = n
		}
		changed++
	}
	return changed, nil
}

func (s *state) ListUnpublishedNotifications(_ context.Context, limit int) ([]core.Notification, error) {
	var out []core.Notification
	for _, n := range s.notifications {
		if n.PublishedAt == nil {
			out = append(out, n)
		}
	}
	sortNotifications(out, false)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *state) MarkNotificationsPublished(_ context.Context, ids []string, at time.Time) error {
	at = at.UTC()
	for _, id := range ids {
		if n, ok := s.notifications[id]; ok {
			n.PublishedAt = &at
			s.notifications[id] = n
		}
	}
	return nil
}

func (s *state) ListUserIDs(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for _, b := range s.budgets {
		seen[b.UserID] = struct{}{}
	}
	for _, t := range s.transactions {
		seen[t.UserID] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}
