// Package memory is an in-process storage.Store used for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu sync.RWMutex
	st *state
}

var _ storage.Store = (*Store)(nil)

// New returns a store seeded with the default global categories and rules.
func New() *Store {
	st := newState()
	for _, c := range storage.DefaultCategories() {
		st.categories[c.ID] = c
	}
	for _, r := range storage.DefaultRules() {
		st.rules[r.ID] = r
	}
	return &Store{st: st}
}

// NewEmpty returns a store without seed data.
func NewEmpty() *Store {
	return &Store{st: newState()}
}

// WithinTx runs fn on a private copy of the data and publishes it only when fn succeeds.
// Other callers block until fn returns, so fn must not call back into s.
func (s *Store) WithinTx(_ context.Context, fn func(storage.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func read[T any](s *Store, fn func(*state) (T, error)) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func write[T any](s *Store, fn func(*state) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) ListVisibleCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return read(s, func(st *state) ([]core.Category, error) { return st.ListVisibleCategories(ctx, userID) })
}

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	return read(s, func(st *state) (core.Category, error) { return st.GetCategory(ctx, id) })
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.CreateCategory(ctx, c) })
	return err
}

func (s *Store) ListRules(ctx context.Context, owner core.Owner) ([]core.Rule, error) {
	return read(s, func(st *state) ([]core.Rule, error) { return st.ListRules(ctx, owner) })
}

func (s *Store) GetRule(ctx context.Context, id string) (core.Rule, error) {
	return read(s, func(st *state) (core.Rule, error) { return st.GetRule(ctx, id) })
}

func (s *Store) CreateRule(ctx context.Context, r core.Rule) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.CreateRule(ctx, r) })
	return err
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.DeleteRule(ctx, id) })
	return err
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return read(s, func(st *state) ([]core.Account, error) { return st.ListAccounts(ctx, userID) })
}

func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return read(s, func(st *state) (core.Account, error) { return st.GetAccount(ctx, id) })
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.CreateAccount(ctx, a) })
	return err
}

func (s *Store) AdjustAccountBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.AdjustAccountBalance(ctx, id, delta) })
	return err
}

func (s *Store) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	return read(s, func(st *state) ([]core.Transaction, error) { return st.ListTransactions(ctx, userID, f) })
}

func (s *Store) SumDebits(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	return read(s, func(st *state) (decimal.Decimal, error) { return st.SumDebits(ctx, userID, categoryID, from, to) })
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return read(s, func(st *state) (core.Transaction, error) { return st.GetTransaction(ctx, id) })
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.CreateTransaction(ctx, t) })
	return err
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.UpdateTransaction(ctx, t) })
	return err
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.DeleteTransaction(ctx, id) })
	return err
}

func (s *Store) ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]core.Budget, error) {
	return read(s, func(st *state) ([]core.Budget, error) { return st.ListBudgets(ctx, userID, activeOnly) })
}

func (s *Store) FindActiveBudget(ctx context.Context, userID, categoryID string) (core.Budget, error) {
	return read(s, func(st *state) (core.Budget, error) { return st.FindActiveBudget(ctx, userID, categoryID) })
}

func (s *Store) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	return read(s, func(st *state) (core.Budget, error) { return st.GetBudget(ctx, id) })
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.CreateBudget(ctx, b) })
	return err
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.UpdateBudget(ctx, b) })
	return err
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.DeleteBudget(ctx, id) })
	return err
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	return read(s, func(st *state) ([]core.SavingsGoal, error) { return st.ListGoals(ctx, userID) })
}

func (s *Store) GetGoal(ctx context.Context, id string) (core.SavingsGoal, error) {
	return read(s, func(st *state) (core.SavingsGoal, error) { return st.GetGoal(ctx, id) })
}

func (s *Store) CreateGoal(ctx context.Context, g core.SavingsGoal) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.CreateGoal(ctx, g) })
	return err
}

func (s *Store) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.UpdateGoal(ctx, g) })
	return err
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.DeleteGoal(ctx, id) })
	return err
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	return read(s, func(st *state) ([]core.Notification, error) { return st.ListNotifications(ctx, userID, unreadOnly) })
}

func (s *Store) HasNotification(ctx context.Context, userID, dedupKey string) (bool, error) {
	return read(s, func(st *state) (bool, error) { return st.HasNotification(ctx, userID, dedupKey) })
}

func (s *Store) InsertNotification(ctx context.Context, n core.Notification) (bool, error) {
	return write(s, func(st *state) (bool, error) { return st.InsertNotification(ctx, n) })
}

func (s *Store) MarkNotificationsRead(ctx context.Context, userID string, ids []string) (int64, error) {
	return write(s, func(st *state) (int64, error) { return st.MarkNotificationsRead(ctx, userID, ids) })
}

func (s *Store) ListUnpublishedNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	return read(s, func(st *state) ([]core.Notification, error) { return st.ListUnpublishedNotifications(ctx, limit) })
}

func (s *Store) MarkNotificationsPublished(ctx context.Context, ids []string, at time.Time) error {
	_, err := write(s, func(st *state) (struct{}, error) { return struct{}{}, st.MarkNotificationsPublished(ctx, ids, at) })
	return err
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	return read(s, func(st *state) ([]string, error) { return st.ListUserIDs(ctx) })
}
