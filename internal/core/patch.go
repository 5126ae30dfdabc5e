package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionPatch holds the fields a caller may change on an existing transaction.
// Nil fields are left untouched.
type TransactionPatch struct {
	CategoryID   *string
	Description  *string
	MerchantName *string
	Date         *time.Time
}

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.CategoryID != nil {
		id := *p.CategoryID
		t.CategoryID = &id
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.MerchantName != nil {
		t.MerchantName = *p.MerchantName
	}
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	return t
}

type BudgetPatch struct {
	MonthlyLimit *decimal.Decimal
	IsActive     *bool
}

func (p BudgetPatch) Apply(b Budget) Budget {
	if p.MonthlyLimit != nil {
		b.MonthlyLimit = *p.MonthlyLimit
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
	return b
}

// GoalPatch does not carry Status: status only moves through ApplyProgress.
type GoalPatch struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	TargetDate    *time.Time
}

func (p GoalPatch) Apply(g SavingsGoal) SavingsGoal {
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		d := p.TargetDate.UTC()
		g.TargetDate = &d
	}
	return g
}
