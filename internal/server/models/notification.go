package models

import "time"

// NotificationSetting is the per (user, team) preference row.
type NotificationSetting struct {
	UserID             string
	TeamID             string
	TeamAlarmEnabled   bool
	ScheduleEnabled    bool
	SchedulePreMinutes []int
	TodoEnabled        bool
	TodoPreMinutes     []int
	NoticeEnabled      bool
	UpdatedAt          time.Time
}

// PersonalNotificationSetting is the per-user global preference row.
// AllEnabled=false silences every team setting of the user.
type PersonalNotificationSetting struct {
	UserID             string
	AllEnabled         bool
	ScheduleEnabled    bool
	SchedulePreMinutes []int
	TodoEnabled        bool
	TodoPreMinutes     []int
	NoticeEnabled      bool
	UpdatedAt          time.Time
}

// Default lead times applied when settings rows are created lazily.
var (
	DefaultSchedulePreMinutes = []int{10}
	DefaultTodoPreMinutes     = []int{30}
)

// DefaultNotificationSetting returns the row created on first read.
func DefaultNotificationSetting(userID, teamID string) *NotificationSetting {
	return &NotificationSetting{
		UserID:             userID,
		TeamID:             teamID,
		TeamAlarmEnabled:   true,
		ScheduleEnabled:    true,
		SchedulePreMinutes: append([]int(nil), DefaultSchedulePreMinutes...),
		TodoEnabled:        true,
		TodoPreMinutes:     append([]int(nil), DefaultTodoPreMinutes...),
		NoticeEnabled:      true,
	}
}

// DefaultPersonalNotificationSetting returns the row created on first read.
func DefaultPersonalNotificationSetting(userID string) *PersonalNotificationSetting {
	return &PersonalNotificationSetting{
		UserID:             userID,
		AllEnabled:         true,
		ScheduleEnabled:    true,
		SchedulePreMinutes: append([]int(nil), DefaultSchedulePreMinutes...),
		TodoEnabled:        true,
		TodoPreMinutes:     append([]int(nil), DefaultTodoPreMinutes...),
		NoticeEnabled:      true,
	}
}
