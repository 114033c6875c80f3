// Package models defines server-side data models persisted in the database.
package models

import "time"

// RefreshToken is one outstanding, single-use renewal credential.
// Existence of the row is the sole authority for validity.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the row is no longer redeemable at now.
// A row expiring exactly at now counts as expired.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
