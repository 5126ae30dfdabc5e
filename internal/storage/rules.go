package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const ruleColumns = "id, user_id, keyword, category_id, created_at"

func scanRule(row interface{ Scan(...any) error }) (core.Rule, error) {
	var (
		rule  core.Rule
		owner sql.NullString
	)
	if err := row.Scan(&rule.ID, &owner, &rule.Keyword, &rule.CategoryID, &rule.CreatedAt); err != nil {
		return core.Rule{}, err
	}
	rule.Owner = ownerFromColumn(owner)
	rule.CreatedAt = rule.CreatedAt.UTC()
	return rule, nil
}

func (r *sqlRepository) ListRules(ctx context.Context, owner core.Owner) ([]core.Rule, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if userID, ok := owner.UserID(); ok {
		rows, err = r.query(ctx,
			"SELECT "+ruleColumns+" FROM categorization_rules WHERE user_id = ? ORDER BY created_at, id", userID)
	} else {
		rows, err = r.query(ctx,
			"SELECT "+ruleColumns+" FROM categorization_rules WHERE user_id IS NULL ORDER BY created_at, id")
	}
	if err != nil {
		return nil, fmt.Errorf("list rules for %s: %w", owner, err)
	}
	defer rows.Close()

	var out []core.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *sqlRepository) GetRule(ctx context.Context, id string) (core.Rule, error) {
	rule, err := scanRule(r.queryRow(ctx, "SELECT "+ruleColumns+" FROM categorization_rules WHERE id = ?", id))
	if err != nil {
		return core.Rule{}, fmt.Errorf("get rule %s: %w", id, notFound(err))
	}
	return rule, nil
}

func (r *sqlRepository) CreateRule(ctx context.Context, rule core.Rule) error {
	_, err := r.exec(ctx,
		"INSERT INTO categorization_rules ("+ruleColumns+") VALUES ("+placeholders(5)+")",
		rule.ID, ownerColumn(rule.Owner), rule.Keyword, rule.CategoryID, rule.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (r *sqlRepository) DeleteRule(ctx context.Context, id string) error {
	if err := r.execOne(ctx, "DELETE FROM categorization_rules WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return nil
}
