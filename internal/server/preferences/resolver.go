// Package preferences decides whether a user wants a reminder for a category
// of event in a team, and how many minutes ahead.
package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/notificationsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/personalsettings"
)

// Category names a kind of notification.
type Category string

const (
	CategorySchedule Category = "schedule"
	CategoryTodo     Category = "todo"
	CategoryNotice   Category = "notice"
)

// Preference is the outcome of resolution. Offsets are lead times in minutes;
// categories without lead times resolve to an empty list.
type Preference struct {
	Enabled bool
	Offsets []int
}

// Resolver reads settings without creating them: a missing row means
// "use defaults", never an error.
type Resolver struct {
	team     notificationsettings.Repository
	personal personalsettings.Repository
}

func NewResolver(team notificationsettings.Repository, personal personalsettings.Repository) *Resolver {
	return &Resolver{team: team, personal: personal}
}

// Resolve applies, in order:
//  1. personal master switch off: disabled;
//  2. team setting present: team master switch AND team category switch, team offsets;
//  3. personal setting present: personal category switch and offsets;
//  4. nothing stored: enabled with the default offsets of the category.
//
// Every call reads fresh; nothing is cached between categories.
func (r *Resolver) Resolve(ctx context.Context, userID, teamID string, cat Category) (Preference, error) {
	personal, err := r.personal.Find(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return Preference{}, fmt.Errorf("error loading personal setting: %w", err)
	}
	if personal != nil && !personal.AllEnabled {
		return Preference{}, nil
	}

	team, err := r.team.Find(ctx, userID, teamID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return Preference{}, fmt.Errorf("error loading team setting: %w", err)
	}
	if team != nil {
		enabled, offsets := teamCategory(team, cat)
		return build(team.TeamAlarmEnabled && enabled, offsets), nil
	}

	if personal != nil {
		enabled, offsets := personalCategory(personal, cat)
		return build(enabled, offsets), nil
	}

	return build(true, defaultOffsets(cat)), nil
}

func build(enabled bool, offsets []int) Preference {
	if !enabled {
		return Preference{}
	}
	return Preference{Enabled: true, Offsets: append([]int(nil), offsets...)}
}

func teamCategory(s *models.NotificationSetting, cat Category) (bool, []int) {
	switch cat {
	case CategorySchedule:
		return s.ScheduleEnabled, s.SchedulePreMinutes
	case CategoryTodo:
		return s.TodoEnabled, s.TodoPreMinutes
	case CategoryNotice:
		return s.NoticeEnabled, nil
	}
	return false, nil
}

func personalCategory(s *models.PersonalNotificationSetting, cat Category) (bool, []int) {
	switch cat {
	case CategorySchedule:
		return s.ScheduleEnabled, s.SchedulePreMinutes
	case CategoryTodo:
		return s.TodoEnabled, s.TodoPreMinutes
	case CategoryNotice:
		return s.NoticeEnabled, nil
	}
	return false, nil
}

func defaultOffsets(cat Category) []int {
	switch cat {
	case CategorySchedule:
		return models.DefaultSchedulePreMinutes
	case CategoryTodo:
		return models.DefaultTodoPreMinutes
	}
	return nil
}
