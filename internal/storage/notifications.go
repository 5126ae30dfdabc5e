package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const notificationColumns = "id, user_id, type, title, message, data_json, dedup_key, is_read, created_at, published_at"

func scanNotification(row interface{ Scan(...any) error }) (core.Notification, error) {
	var (
		n         core.Notification
		typ       string
		dedupKey  sql.NullString
		published sql.NullTime
	)
	err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.DataJSON, &dedupKey, &n.Read, &n.CreatedAt, &published)
	if err != nil {
		return core.Notification{}, err
	}
	n.Type = core.NotificationType(typ)
	n.DedupKey = dedupKey.String
	n.CreatedAt = n.CreatedAt.UTC()
	n.PublishedAt = timePtr(published)
	return n, nil
}

func (r *sqlRepository) scanNotifications(rows *sql.Rows) ([]core.Notification, error) {
	defer rows.Close()
	var out []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *sqlRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	q := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = ?"
	args := []any{userID}
	if unreadOnly {
		q += " AND is_read = ?"
		args = append(args, false)
	}
	rows, err := r.query(ctx, q+" ORDER BY created_at DESC, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return r.scanNotifications(rows)
}

func (r *sqlRepository) HasNotification(ctx context.Context, userID, dedupKey string) (bool, error) {
	var n int
	err := r.queryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND dedup_key = ?", userID, dedupKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check notification %s: %w", dedupKey, err)
	}
	return n > 0, nil
}

// InsertNotification relies on the (user_id, dedup_key) unique index. NULL keys never collide.
func (r *sqlRepository) InsertNotification(ctx context.Context, n core.Notification) (bool, error) {
	var dedupKey sql.NullString
	if n.DedupKey != "" {
		dedupKey = sql.NullString{String: n.DedupKey, Valid: true}
	}
	res, err := r.exec(ctx,
		r.dialect.insertIgnore("notifications", notificationColumns, placeholders(10)),
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.DataJSON, dedupKey, n.Read,
		n.CreatedAt.UTC(), nullTime(n.PublishedAt))
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return affected > 0, nil
}

func (r *sqlRepository) MarkNotificationsRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+2)
	args = append(args, true, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.exec(ctx,
		"UPDATE notifications SET is_read = ? WHERE user_id = ? AND id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqlRepository) ListUnpublishedNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	rows, err := r.query(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE published_at IS NULL ORDER BY created_at, id LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished notifications: %w", err)
	}
	return r.scanNotifications(rows)
}

func (r *sqlRepository) MarkNotificationsPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, at.UTC())
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := r.exec(ctx,
		"UPDATE notifications SET published_at = ? WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return fmt.Errorf("mark notifications published: %w", err)
	}
	return nil
}
