// Package dedup remembers which reminders have already been sent so a
// reminder observed again on a later scan is not sent twice.
package dedup

import (
	"context"
	"fmt"
	"time"
)

// Key identifies one reminder: an entity, a recipient and a lead time.
type Key struct {
	EntityID    string
	RecipientID string
	Offset      int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.EntityID, k.RecipientID, k.Offset)
}

// Guard is an idempotency store for reminders.
type Guard interface {
	// Claim records key as fired at the given time unless it is already
	// recorded. It reports true only to the single caller that recorded it.
	Claim(ctx context.Context, key Key, at time.Time) (bool, error)
	// Release forgets key so that a later scan may fire it again.
	Release(ctx context.Context, key Key) error
	// Evict drops entries recorded before the cutoff and returns how many.
	Evict(ctx context.Context, before time.Time) (int, error)
}
