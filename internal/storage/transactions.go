package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const transactionColumns = "id, user_id, account_id, category_id, type, amount, description, merchant_name, date, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                   core.Transaction
		accountID, category sql.NullString
		typ                 string
	)
	err := row.Scan(&t.ID, &t.UserID, &accountID, &category, &typ, &t.Amount,
		&t.Description, &t.MerchantName, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.AccountID = stringPtr(accountID)
	t.CategoryID = stringPtr(category)
	t.Type = core.TransactionType(typ)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

// ListTransactions returns the user's transactions newest first. Amount bounds are applied after
// the scan because SQLite keeps amounts as TEXT.
func (r *sqlRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.UTC())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(description) LIKE ? OR LOWER(merchant_name) LIKE ?)")
		args = append(args, like, like)
	}

	rows, err := r.query(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE "+strings.Join(where, " AND ")+" ORDER BY date DESC, id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
			continue
		}
		if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *sqlRepository) SumDebits(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	rows, err := r.query(ctx,
		"SELECT amount FROM transactions WHERE user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date <= ?",
		userID, categoryID, string(core.Debit), from.UTC(), to.UTC())
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum debits: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

func (r *sqlRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.queryRow(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, notFound(err))
	}
	return t, nil
}

func (r *sqlRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.exec(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES ("+placeholders(11)+")",
		t.ID, t.UserID, nullString(t.AccountID), nullString(t.CategoryID), string(t.Type), t.Amount,
		t.Description, t.MerchantName, t.Date.UTC(), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *sqlRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.execOne(ctx,
		`UPDATE transactions
		 SET category_id = ?, description = ?, merchant_name = ?, date = ?, updated_at = ?
		 WHERE id = ?`,
		nullString(t.CategoryID), t.Description, t.MerchantName, t.Date.UTC(), t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *sqlRepository) DeleteTransaction(ctx context.Context, id string) error {
	if err := r.execOne(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}
