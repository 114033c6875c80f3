// Package todos reads incomplete todos approaching their deadline.
package todos

import (
	"context"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type Repository interface {
	// ListDue returns incomplete todos ending within [from, to] with the user ids
	// of their assignees.
	ListDue(ctx context.Context, from, to time.Time) ([]*models.DueItem, error)
}
