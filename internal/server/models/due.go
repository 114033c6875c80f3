package models

import "time"

// DueItem is a schedule or todo seen by the due-soon scanner: one
// deadline-bearing entity together with the users who should be reminded.
type DueItem struct {
	ID         string
	TeamID     string
	Title      string
	DueAt      time.Time
	Recipients []string
}

// DeviceToken is the push-delivery address registered for a user.
type DeviceToken struct {
	UserID    string
	Address   string
	UpdatedAt time.Time
}

// AppendDueRow folds one (entity, recipient) row into items. Rows must be
// ordered by entity so that all recipients of an entity are adjacent.
func AppendDueRow(items []*DueItem, id, teamID, title string, dueAt time.Time, userID string) []*DueItem {
	if n := len(items); n > 0 && items[n-1].ID == id {
		items[n-1].Recipients = append(items[n-1].Recipients, userID)
		return items
	}
	return append(items, &DueItem{
		ID:         id,
		TeamID:     teamID,
		Title:      title,
		DueAt:      dueAt,
		Recipients: []string{userID},
	})
}
