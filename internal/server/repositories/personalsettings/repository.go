// Package personalsettings persists the per-user global notification preference.
package personalsettings

import (
	"context"

	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type Repository interface {
	Find(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error)
	GetOrCreate(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error)
	Update(ctx context.Context, s *models.PersonalNotificationSetting) error
}
