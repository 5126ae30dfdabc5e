package storage

import (
	"context"
	"fmt"
)

func (r *sqlRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx,
		"SELECT user_id FROM budgets UNION SELECT user_id FROM transactions ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
