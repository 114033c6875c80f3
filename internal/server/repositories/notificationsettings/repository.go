// Package notificationsettings persists per (user, team) notification preferences.
package notificationsettings

import (
	"context"

	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type Repository interface {
	// Find returns common.ErrorNotFound when no row exists; it never creates one.
	Find(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error)
	// GetOrCreate lazily inserts the default row on first read.
	GetOrCreate(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error)
	Update(ctx context.Context, s *models.NotificationSetting) error
}
