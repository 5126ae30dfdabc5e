package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// CategoryService lists the global taxonomy plus the user's own categories.
type CategoryService struct {
	store  storage.Store
	logger *applog.Logger
}

func NewCategoryService(store storage.Store, logger *applog.Logger) *CategoryService {
	if logger == nil {
		logger = applog.Default()
	}
	return &CategoryService{store: store, logger: logger.WithComponent(applog.ComponentService)}
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListVisibleCategories(ctx, userID)
}

// Create adds a category owned by userID. Global categories are only created by migrations.
func (s *CategoryService) Create(ctx context.Context, userID, name string, typ core.CategoryType) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	c := core.Category{
		ID:    uuid.NewString(),
		Owner: core.OwnedBy(userID),
		Name:  strings.TrimSpace(name),
		Type:  typ,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created", applog.FieldUserID, userID, applog.FieldCategoryID, c.ID)
	return c, nil
}
