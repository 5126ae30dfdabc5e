package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Repository is the query/command surface the engines and services read and write through.
// Lookups by id return core.ErrNotFound when no row matches.
type Repository interface {
	ListVisibleCategories(ctx context.Context, userID string) ([]core.Category, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) error

	// ListRules returns the rules of exactly one owner, ordered by creation time then id.
	ListRules(ctx context.Context, owner core.Owner) ([]core.Rule, error)
	GetRule(ctx context.Context, id string) (core.Rule, error)
	CreateRule(ctx context.Context, r core.Rule) error
	DeleteRule(ctx context.Context, id string) error

	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	CreateAccount(ctx context.Context, a core.Account) error
	AdjustAccountBalance(ctx context.Context, id string, delta decimal.Decimal) error

	ListTransactions(ctx context.Context, userID string, filter core.TransactionFilter) ([]core.Transaction, error)
	// SumDebits totals DEBIT amounts for one user and category with from and to inclusive.
	SumDebits(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]core.Budget, error)
	// FindActiveBudget returns the oldest active budget of the user for the category.
	FindActiveBudget(ctx context.Context, userID, categoryID string) (core.Budget, error)
	GetBudget(ctx context.Context, id string) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) error
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id string) error

	ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
	GetGoal(ctx context.Context, id string) (core.SavingsGoal, error)
	CreateGoal(ctx context.Context, g core.SavingsGoal) error
	UpdateGoal(ctx context.Context, g core.SavingsGoal) error
	DeleteGoal(ctx context.Context, id string) error

	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error)
	HasNotification(ctx context.Context, userID, dedupKey string) (bool, error)
	// InsertNotification returns false, without error, when the user already holds a notification
	// with the same non-empty dedup key.
	InsertNotification(ctx context.Context, n core.Notification) (bool, error)
	// MarkNotificationsRead only touches rows owned by userID and returns how many changed.
	MarkNotificationsRead(ctx context.Context, userID string, ids []string) (int64, error)
	ListUnpublishedNotifications(ctx context.Context, limit int) ([]core.Notification, error)
	MarkNotificationsPublished(ctx context.Context, ids []string, at time.Time) error

	// ListUserIDs returns every user that owns a budget or a transaction.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Store is a Repository that can also open a unit of work.
type Store interface {
	Repository
	// WithinTx runs fn against a transaction-scoped Repository. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
