// Package schedules reads upcoming schedules and their attendees.
package schedules

import (
	"context"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type Repository interface {
	// ListDue returns schedules starting within [from, to] with the user ids
	// of their attendees.
	ListDue(ctx context.Context, from, to time.Time) ([]*models.DueItem, error)
}
