package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

type RuleService struct {
	store  storage.Store
	logger *applog.Logger
}

func NewRuleService(store storage.Store, logger *applog.Logger) *RuleService {
	if logger == nil {
		logger = applog.Default()
	}
	return &RuleService{store: store, logger: logger.WithComponent(applog.ComponentService)}
}

// List returns the rules applied to the user's transactions in evaluation order: the user's own
// rules first, then the global ones.
func (s *RuleService) List(ctx context.Context, userID string) ([]core.Rule, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	own, err := s.store.ListRules(ctx, core.OwnedBy(userID))
	if err != nil {
		return nil, err
	}
	global, err := s.store.ListRules(ctx, core.Global())
	if err != nil {
		return nil, err
	}
	return append(own, global...), nil
}

// Create stores a rule owned by userID. Blank keywords are rejected with core.ErrBlankKeyword
// since they would match every transaction.
func (s *RuleService) Create(ctx context.Context, userID, keyword, categoryID string) (core.Rule, error) {
	if err := requireUser(userID); err != nil {
		return core.Rule{}, err
	}
	r := core.Rule{
		ID:         uuid.NewString(),
		Owner:      core.OwnedBy(userID),
		Keyword:    strings.ToLower(strings.TrimSpace(keyword)),
		CategoryID: categoryID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return core.Rule{}, err
	}

	err := s.store.WithinTx(ctx, func(repo storage.Repository) error {
		if _, err := visibleCategory(ctx, repo, userID, categoryID); err != nil {
			return err
		}
		return repo.CreateRule(ctx, r)
	})
	if err != nil {
		return core.Rule{}, fmt.Errorf("create rule: %w", err)
	}
	s.logger.InfoContext(ctx, "Rule created", applog.FieldUserID, userID, applog.FieldRuleID, r.ID)
	return r, nil
}

// Delete removes one of the user's rules. Global rules and other users' rules are forbidden.
func (s *RuleService) Delete(ctx context.Context, userID, id string) error {
	err := s.store.WithinTx(ctx, func(repo storage.Repository) error {
		r, err := repo.GetRule(ctx, id)
		if err != nil {
			return err
		}
		owner, ok := r.Owner.UserID()
		if !ok || owner != userID {
			return fmt.Errorf("rule %s: %w", id, core.ErrForbidden)
		}
		return repo.DeleteRule(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}
