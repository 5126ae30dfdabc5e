package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

type NotificationService struct {
	store  storage.Store
	logger *applog.Logger
}

func NewNotificationService(store storage.Store, logger *applog.Logger) *NotificationService {
	if logger == nil {
		logger = applog.Default()
	}
	return &NotificationService{store: store, logger: logger.WithComponent(applog.ComponentService)}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead flags the given notifications as read. Ids that are unknown or belong to another
// user are ignored.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkNotificationsRead(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	s.logger.DebugContext(ctx, "Notifications marked read", applog.FieldUserID, userID, applog.FieldCount, n)
	return n, nil
}
