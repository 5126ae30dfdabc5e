package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"

	Expense CategoryType = "EXPENSE"
	Income  CategoryType = "INCOME"

	Chequing   AccountType = "CHEQUING"
	Savings    AccountType = "SAVINGS"
	CreditCard AccountType = "CREDIT"

	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"

	BudgetThreshold NotificationType = "BUDGET_THRESHOLD"
	GoalReached     NotificationType = "GOAL_REACHED"
	General         NotificationType = "GENERAL"
)

type (
	TransactionType  string
	CategoryType     string
	AccountType      string
	GoalStatus       string
	NotificationType string

	Account struct {
		ID             string
		UserID         string
		Name           string
		Type           AccountType
		CurrentBalance decimal.Decimal
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Transaction struct {
		ID           string
		UserID       string
		AccountID    *string
		CategoryID   *string
		Type         TransactionType
		Amount       decimal.Decimal
		Description  string
		MerchantName string
		Date         time.Time
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Budget struct {
		ID           string
		UserID       string
		CategoryID   string
		MonthlyLimit decimal.Decimal
		IsActive     bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Category struct {
		ID        string
		Owner     Owner
		Name      string
		Type      CategoryType
		IsDefault bool
	}

	// Rule maps a keyword to a category. Rules are evaluated in CreatedAt order, ties broken by ID.
	Rule struct {
		ID         string
		Owner      Owner
		Keyword    string
		CategoryID string
		CreatedAt  time.Time
	}

	SavingsGoal struct {
		ID            string
		UserID        string
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    *time.Time
		Status        GoalStatus
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Notification struct {
		ID        string
		UserID    string
		Type      NotificationType
		Title     string
		Message   string
		CreatedAt time.Time
		Read      bool
		DataJSON  string
		// DedupKey is unique per user when set. Empty means no duplicate suppression.
		DedupKey    string
		PublishedAt *time.Time
	}

	// TransactionFilter narrows a user's transaction listing. Zero fields are ignored and date bounds are inclusive.
	TransactionFilter struct {
		AccountID  string
		CategoryID string
		From       time.Time
		To         time.Time
		MinAmount  *decimal.Decimal
		MaxAmount  *decimal.Decimal
		Search     string
	}
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid type")
	ErrInvalidUser   = errors.New("invalid user id")
	ErrEmptyName     = errors.New("empty name")
	ErrBlankKeyword  = errors.New("blank keyword")
	ErrEmptyCategory = errors.New("empty category")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
)

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrInvalidMonth, ErrInvalidAmount, ErrInvalidType,
		ErrEmptyName, ErrBlankKeyword, ErrEmptyCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Sign returns the balance effect of the transaction on its account.
func (t Transaction) Sign() decimal.Decimal {
	if t.Type == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t TransactionType) Valid() bool {
	return t == Debit || t == Credit
}

func (t CategoryType) Valid() bool {
	return t == Expense || t == Income
}

func (t AccountType) Valid() bool {
	switch t {
	case Chequing, Savings, CreditCard:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrInvalidUser
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidInput)
	}
	if len(t.Description) > 500 {
		return fmt.Errorf("%w: description too long (max 500 characters)", ErrInvalidInput)
	}
	if len(t.MerchantName) > 200 {
		return fmt.Errorf("%w: merchant name too long (max 200 characters)", ErrInvalidInput)
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrInvalidUser
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	return ValidateBalance(a.CurrentBalance)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrInvalidUser
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return ValidateAmount(b.MonthlyLimit)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return ErrBlankKeyword
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrInvalidUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	return ValidateBalance(g.CurrentAmount)
}

// ApplyProgress moves an ACTIVE goal to COMPLETED once the current amount reaches the target.
// A COMPLETED goal is never moved back to ACTIVE.
func (g SavingsGoal) ApplyProgress() SavingsGoal {
	if g.Status == GoalActive && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalCompleted
	}
	return g
}

// ProgressPercent is current/target rounded half-up to 4 places, scaled to a percentage.
func (g SavingsGoal) ProgressPercent() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return g.CurrentAmount.DivRound(g.TargetAmount, 4).Mul(hundred)
}
