// Package memberships answers team-membership questions for authorization
// of team-scoped endpoints.
package memberships

import "context"

type Repository interface {
	IsMember(ctx context.Context, userID, teamID string) (bool, error)
}
