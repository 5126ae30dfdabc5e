package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

type NewGoal struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time
}

// GoalService tracks savings goals and raises a notification when one is reached.
type GoalService struct {
	store    storage.Store
	notifier *notify.Engine
	logger   *applog.Logger
}

func NewGoalService(store storage.Store, notifier *notify.Engine, logger *applog.Logger) *GoalService {
	if logger == nil {
		logger = applog.Default()
	}
	return &GoalService{store: store, notifier: notifier, logger: logger.WithComponent(applog.ComponentService)}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.GoalProgress, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, core.GoalProgress{Goal: g, ProgressPercent: g.ProgressPercent()})
	}
	return out, nil
}

// Create stores a goal. A goal funded at or above its target starts COMPLETED and raises no
// notification.
func (s *GoalService) Create(ctx context.Context, userID string, in NewGoal) (core.SavingsGoal, error) {
	now := time.Now().UTC()
	g := core.SavingsGoal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Status:        core.GoalActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.TargetDate != nil {
		d := in.TargetDate.UTC()
		g.TargetDate = &d
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	g = g.ApplyProgress()

	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created", applog.FieldUserID, userID, applog.FieldGoalID, g.ID)
	return g, nil
}

// Update applies the patch, advances the status and raises the goal-reached notification in the
// same unit of work.
func (s *GoalService) Update(ctx context.Context, userID, id string, patch core.GoalPatch) (core.SavingsGoal, error) {
	var out core.SavingsGoal
	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		g, err := r.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		if err := owns("goal", id, g.UserID, userID); err != nil {
			return err
		}

		wasActive := g.Status == core.GoalActive
		g = patch.Apply(g).ApplyProgress()
		if err := g.Validate(); err != nil {
			return err
		}
		g.UpdatedAt = time.Now().UTC()
		if err := r.UpdateGoal(ctx, g); err != nil {
			return err
		}
		if err := s.notifier.WithRepository(r).CheckGoalCompletion(ctx, userID, g, wasActive); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal: %w", err)
	}
	return out, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	err := s.store.WithinTx(ctx, func(r storage.Repository) error {
		g, err := r.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		if err := owns("goal", id, g.UserID, userID); err != nil {
			return err
		}
		return r.DeleteGoal(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
