package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = "id, user_id, category_id, monthly_limit, is_active, created_at, updated_at"

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.MonthlyLimit, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return core.Budget{}, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func (r *sqlRepository) ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]core.Budget, error) {
	q := "SELECT " + budgetColumns + " FROM budgets WHERE user_id = ?"
	args := []any{userID}
	if activeOnly {
		q += " AND is_active = ?"
		args = append(args, true)
	}
	rows, err := r.query(ctx, q+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *sqlRepository) FindActiveBudget(ctx context.Context, userID, categoryID string) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx,
		"SELECT "+budgetColumns+` FROM budgets
		 WHERE user_id = ? AND category_id = ? AND is_active = ?
		 ORDER BY created_at, id LIMIT 1`,
		userID, categoryID, true))
	if err != nil {
		return core.Budget{}, fmt.Errorf("find active budget for %s: %w", categoryID, notFound(err))
	}
	return b, nil
}

func (r *sqlRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, notFound(err))
	}
	return b, nil
}

func (r *sqlRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.exec(ctx,
		"INSERT INTO budgets ("+budgetColumns+") VALUES ("+placeholders(7)+")",
		b.ID, b.UserID, b.CategoryID, b.MonthlyLimit, b.IsActive, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *sqlRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	err := r.execOne(ctx,
		"UPDATE budgets SET monthly_limit = ?, is_active = ?, updated_at = ? WHERE id = ?",
		b.MonthlyLimit, b.IsActive, b.UpdatedAt.UTC(), b.ID)
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return nil
}

func (r *sqlRepository) DeleteBudget(ctx context.Context, id string) error {
	if err := r.execOne(ctx, "DELETE FROM budgets WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return nil
}
