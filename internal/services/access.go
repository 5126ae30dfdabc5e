package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrInvalidUser
	}
	return nil
}

// owns returns ErrForbidden when a row belongs to someone other than userID.
func owns(kind, id, owner, userID string) error {
	if owner != userID {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrForbidden)
	}
	return nil
}

// visibleCategory loads a category the user may reference. Categories owned by other users
// are reported as missing.
func visibleCategory(ctx context.Context, r storage.Repository, userID, id string) (core.Category, error) {
	c, err := r.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if !c.Owner.VisibleTo(userID) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}
