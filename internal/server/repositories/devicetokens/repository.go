// Package devicetokens stores the push-delivery address of each user.
package devicetokens

import "context"

type Repository interface {
	// FindAddress returns common.ErrorNotFound when the user has no device registered.
	FindAddress(ctx context.Context, userID string) (string, error)
	Upsert(ctx context.Context, userID, address string) error
}
