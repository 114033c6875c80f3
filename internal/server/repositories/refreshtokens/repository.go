// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

// Repository is the TokenStore: the registry of outstanding refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID expiring at expiresAt.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// FindForUpdate reads the row for token and locks it exclusively until
	// the surrounding transaction ends. Must be called on a transactional DBTX.
	// Returns common.ErrorNotFound when the row does not exist.
	FindForUpdate(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string and reports whether
	// a row was removed.
	Delete(ctx context.Context, token string) (bool, error)

	// DeleteByUser removes every refresh token owned by userID.
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired removes rows whose expiry is before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
