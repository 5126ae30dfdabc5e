package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const goalColumns = "id, user_id, name, target_amount, current_amount, target_date, status, created_at, updated_at"

func scanGoal(row interface{ Scan(...any) error }) (core.SavingsGoal, error) {
	var (
		g          core.SavingsGoal
		targetDate sql.NullTime
		status     string
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &targetDate, &status, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.TargetDate = timePtr(targetDate)
	g.Status = core.GoalStatus(status)
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g, nil
}

func (r *sqlRepository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.query(ctx,
		"SELECT "+goalColumns+" FROM savings_goals WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *sqlRepository) GetGoal(ctx context.Context, id string) (core.SavingsGoal, error) {
	g, err := scanGoal(r.queryRow(ctx, "SELECT "+goalColumns+" FROM savings_goals WHERE id = ?"+r.dialect.forUpdate(), id))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal %s: %w", id, notFound(err))
	}
	return g, nil
}

func (r *sqlRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) error {
	_, err := r.exec(ctx,
		"INSERT INTO savings_goals ("+goalColumns+") VALUES ("+placeholders(9)+")",
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, nullTime(g.TargetDate), string(g.Status),
		g.CreatedAt.UTC(), g.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *sqlRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	err := r.execOne(ctx,
		`UPDATE savings_goals
		 SET name = ?, target_amount = ?, current_amount = ?, target_date = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		g.Name, g.TargetAmount, g.CurrentAmount, nullTime(g.TargetDate), string(g.Status), g.UpdatedAt.UTC(), g.ID)
	if err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return nil
}

func (r *sqlRepository) DeleteGoal(ctx context.Context, id string) error {
	if err := r.execOne(ctx, "DELETE FROM savings_goals WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}
