package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = "id, user_id, name, type, is_default"

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c     core.Category
		owner sql.NullString
		typ   string
	)
	if err := row.Scan(&c.ID, &owner, &c.Name, &typ, &c.IsDefault); err != nil {
		return core.Category{}, err
	}
	c.Owner = ownerFromColumn(owner)
	c.Type = core.CategoryType(typ)
	return c, nil
}

func (r *sqlRepository) ListVisibleCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.query(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id IS NULL OR user_id = ? ORDER BY name, id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *sqlRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, notFound(err))
	}
	return c, nil
}

func (r *sqlRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.exec(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES ("+placeholders(5)+")",
		c.ID, ownerColumn(c.Owner), c.Name, string(c.Type), c.IsDefault)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}
