package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

// NewTransaction is the caller-supplied part of a transaction. A nil CategoryID asks for
// rule-based categorization; a zero Date means now.
type NewTransaction struct {
	AccountID    *string
	CategoryID   *string
	Type         core.TransactionType
	Amount       decimal.Decimal
	Description  string
	MerchantName string
	Date         time.Time
}

// TransactionService records transactions and keeps account balances and budget alerts in step.
type TransactionService struct {
	store      storage.Store
	categories *categorize.Engine
	notifier   *notify.Engine
	logger     *applog.Logger
	now        func() time.Time
}

func NewTransactionService(store storage.Store, categories *categorize.Engine, notifier *notify.Engine, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.Default()
	}
	return &TransactionService{
		store:      store,
		categories: categories,
		notifier:   notifier,
		logger:     logger.WithComponent(applog.ComponentService),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores the transaction, moves the account balance and runs the budget threshold check
// in one unit of work. If any step fails nothing is persisted.
func (s *TransactionService) Create(ctx context.Context, userID string, in NewTransaction) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}
	now := s.now()
	t := core.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		AccountID:    in.AccountID,
		CategoryID:   in.CategoryID,
		Type:         in.Type,
		Amount:       in.Amount,
		Description:  in.Description,
		MerchantName: in.MerchantName,
		Date:         in.Date.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Date.IsZero() {
		t.Date = now
	}
	if t.CategoryID != nil && *t.CategoryID == "" {
		t.CategoryID = nil
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		if t.AccountID != nil {
			acc, err := r.GetAccount(ctx, *t.AccountID)
			if err != nil {
				return err
			}
			if err := owns("account", acc.ID, acc.UserID, userID); err != nil {
				return err
			}
		}

		if t.CategoryID != nil {
			if _, err := visibleCategory(ctx, r, userID, *t.CategoryID); err != nil {
				return err
			}
		} else {
			id, ok, err := s.categories.WithRules(r).ResolveCategory(ctx, t.MerchantName, t.Description, userID)
			if err != nil {
				return fmt.Errorf("categorize: %w", err)
			}
			if ok {
				t.CategoryID = &id
			}
		}

		if err := r.CreateTransaction(ctx, t); err != nil {
			return err
		}
		if t.AccountID != nil {
			if err := r.AdjustAccountBalance(ctx, *t.AccountID, t.Sign()); err != nil {
				return err
			}
		}
		if t.Type == core.Debit {
			return s.notifier.WithRepository(r).CheckBudgetThreshold(ctx, userID, t.CategoryID, t.Date)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.FieldUserID, userID,
		applog.FieldTransactionID, t.ID,
		applog.FieldAmount, t.Amount.StringFixed(2))
	return t, nil
}

// Update applies a patch to the descriptive fields. Amount, type and account are immutable.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	var out core.Transaction
	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		t, err := r.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := owns("transaction", id, t.UserID, userID); err != nil {
			return err
		}
		if patch.CategoryID != nil && *patch.CategoryID != "" {
			if _, err := visibleCategory(ctx, r, userID, *patch.CategoryID); err != nil {
				return err
			}
		}

		t = patch.Apply(t)
		if t.CategoryID != nil && *t.CategoryID == "" {
			t.CategoryID = nil
		}
		if err := t.Validate(); err != nil {
			return err
		}
		t.UpdatedAt = s.now()
		if err := r.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return out, nil
}

// Delete removes the transaction and reverses its effect on the account balance.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		t, err := r.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := owns("transaction", id, t.UserID, userID); err != nil {
			return err
		}
		if err := r.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		if t.AccountID != nil {
			return r.AdjustAccountBalance(ctx, *t.AccountID, t.Sign().Neg())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldUserID, userID, applog.FieldTransactionID, id)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := owns("transaction", id, t.UserID, userID); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, filter core.TransactionFilter) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, userID, filter)
}
