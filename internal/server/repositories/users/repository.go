// Package users persists registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its id and creation time.
	// A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByUsername returns common.ErrorNotFound for unknown names.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
