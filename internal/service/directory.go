package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// Directory resolves principals by exact email or fuzzy display name.
type Directory struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewDirectory(userStore model.UserStore, logger *logger.Logger) *Directory {
	return &Directory{
		userStore: userStore,
		logger:    logger,
	}
}

// Lookup returns at most one user matching query by exact email equality
// or case-insensitive substring match on display name. Zero matches is
// model.ErrNotFound, a distinguished outcome; more than one match is
// model.ErrAmbiguous, never a silent pick.
func (d *Directory) Lookup(ctx context.Context, query string) (model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.User{}, model.ErrNotFound
	}

	user, err := d.userStore.Search(ctx, query)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrAmbiguous) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to search users: %w", err)
	}

	return user, nil
}
