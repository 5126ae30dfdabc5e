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
	"fintrack/internal/storage"
)

type AccountService struct {
	store  storage.Store
	logger *applog.Logger
}

func NewAccountService(store storage.Store, logger *applog.Logger) *AccountService {
	if logger == nil {
		logger = applog.Default()
	}
	return &AccountService{store: store, logger: logger.WithComponent(applog.ComponentService)}
}

func (s *AccountService) Create(ctx context.Context, userID, name string, typ core.AccountType, openingBalance decimal.Decimal) (core.Account, error) {
	now := time.Now().UTC()
	a := core.Account{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           strings.TrimSpace(name),
		Type:           typ,
		CurrentBalance: openingBalance.Round(2),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account created", applog.FieldUserID, userID, applog.FieldAccountID, a.ID)
	return a, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]core.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListAccounts(ctx, userID)
}
