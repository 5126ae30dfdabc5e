package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

type BudgetService struct {
	store  storage.Store
	logger *applog.Logger
}

func NewBudgetService(store storage.Store, logger *applog.Logger) *BudgetService {
	if logger == nil {
		logger = applog.Default()
	}
	return &BudgetService{store: store, logger: logger.WithComponent(applog.ComponentService)}
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListBudgets(ctx, userID, false)
}

// Create adds an active budget. The category must be visible to the user.
func (s *BudgetService) Create(ctx context.Context, userID, categoryID string, monthlyLimit decimal.Decimal) (core.Budget, error) {
	now := time.Now().UTC()
	b := core.Budget{
		ID:           uuid.NewString(),
		UserID:       userID,
		CategoryID:   categoryID,
		MonthlyLimit: monthlyLimit,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		if _, err := visibleCategory(ctx, r, userID, categoryID); err != nil {
			return err
		}
		return r.CreateBudget(ctx, b)
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget created",
		applog.FieldUserID, userID,
		applog.FieldBudgetID, b.ID,
		applog.FieldLimit, b.MonthlyLimit.StringFixed(2))
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, patch core.BudgetPatch) (core.Budget, error) {
	var out core.Budget
	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		b, err := r.GetBudget(ctx, id)
		if err != nil {
			return err
		}
		if err := owns("budget", id, b.UserID, userID); err != nil {
			return err
		}
		b = patch.Apply(b)
		if err := b.Validate(); err != nil {
			return err
		}
		b.UpdatedAt = time.Now().UTC()
		if err := r.UpdateBudget(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return out, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		b, err := r.GetBudget(ctx, id)
		if err != nil {
			return err
		}
		if err := owns("budget", id, b.UserID, userID); err != nil {
			return err
		}
		return r.DeleteBudget(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
