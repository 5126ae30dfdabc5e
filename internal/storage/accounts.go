package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const accountColumns = "id, user_id, name, type, current_balance, created_at, updated_at"

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a   core.Account
		typ string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func (r *sqlRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.query(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *sqlRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := scanAccount(r.queryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id))
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, notFound(err))
	}
	return a, nil
}

func (r *sqlRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.exec(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES ("+placeholders(7)+")",
		a.ID, a.UserID, a.Name, string(a.Type), a.CurrentBalance, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// AdjustAccountBalance adds delta to the balance. Arithmetic happens in Go so SQLite's TEXT
// amounts stay exact.
func (r *sqlRepository) AdjustAccountBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	var balance decimal.Decimal
	err := r.queryRow(ctx, "SELECT current_balance FROM accounts WHERE id = ?"+r.dialect.forUpdate(), id).Scan(&balance)
	if err != nil {
		return fmt.Errorf("read balance of account %s: %w", id, notFound(err))
	}
	err = r.execOne(ctx, "UPDATE accounts SET current_balance = ?, updated_at = ? WHERE id = ?",
		balance.Add(delta).Round(2), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update balance of account %s: %w", id, err)
	}
	return nil
}
