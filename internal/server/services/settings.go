package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/repomanager"
)

// TeamSettingPatch is a partial update of a team-scoped setting.
// Nil fields are left unchanged.
type TeamSettingPatch struct {
	TeamAlarmEnabled   *bool  `json:"teamAlarmEnabled"`
	ScheduleEnabled    *bool  `json:"scheduleEnabled"`
	SchedulePreMinutes *[]int `json:"schedulePreMinutes"`
	TodoEnabled        *bool  `json:"todoEnabled"`
	TodoPreMinutes     *[]int `json:"todoPreMinutes"`
	NoticeEnabled      *bool  `json:"noticeEnabled"`
}

// PersonalSettingPatch is a partial update of the personal setting.
type PersonalSettingPatch struct {
	AllEnabled         *bool  `json:"allEnabled"`
	ScheduleEnabled    *bool  `json:"scheduleEnabled"`
	SchedulePreMinutes *[]int `json:"schedulePreMinutes"`
	TodoEnabled        *bool  `json:"todoEnabled"`
	TodoPreMinutes     *[]int `json:"todoPreMinutes"`
	NoticeEnabled      *bool  `json:"noticeEnabled"`
}

// SettingsService reads and updates notification preferences and device
// registrations on behalf of an authenticated user.
type SettingsService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	maxOffset   int
}

// NewSettingsService builds a SettingsService. Offsets longer than horizon
// could never fire because the scanner only looks horizon ahead.
func NewSettingsService(db dbx.DBTX, m repomanager.RepositoryManager, horizon time.Duration) *SettingsService {
	return &SettingsService{
		db:          db,
		repomanager: m,
		maxOffset:   int(horizon / time.Minute),
	}
}

func (s *SettingsService) GetTeamSetting(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error) {
	if err := s.checkMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	setting, err := s.repomanager.NotificationSettings(s.db).GetOrCreate(ctx, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("error loading team setting: %w", err)
	}
	return setting, nil
}

func (s *SettingsService) UpdateTeamSetting(ctx context.Context, userID, teamID string, p TeamSettingPatch) (*models.NotificationSetting, error) {
	if err := s.checkMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	repo := s.repomanager.NotificationSettings(s.db)
	setting, err := repo.GetOrCreate(ctx, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("error loading team setting: %w", err)
	}

	applyBool(&setting.TeamAlarmEnabled, p.TeamAlarmEnabled)
	applyBool(&setting.ScheduleEnabled, p.ScheduleEnabled)
	applyBool(&setting.TodoEnabled, p.TodoEnabled)
	applyBool(&setting.NoticeEnabled, p.NoticeEnabled)
	if setting.SchedulePreMinutes, err = s.applyOffsets(setting.SchedulePreMinutes, p.SchedulePreMinutes); err != nil {
		return nil, err
	}
	if setting.TodoPreMinutes, err = s.applyOffsets(setting.TodoPreMinutes, p.TodoPreMinutes); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, setting); err != nil {
		return nil, fmt.Errorf("error saving team setting: %w", err)
	}
	return setting, nil
}

func (s *SettingsService) GetPersonalSetting(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error) {
	setting, err := s.repomanager.PersonalSettings(s.db).GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading personal setting: %w", err)
	}
	return setting, nil
}

func (s *SettingsService) UpdatePersonalSetting(ctx context.Context, userID string, p PersonalSettingPatch) (*models.PersonalNotificationSetting, error) {
	repo := s.repomanager.PersonalSettings(s.db)
	setting, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading personal setting: %w", err)
	}

	applyBool(&setting.AllEnabled, p.AllEnabled)
	applyBool(&setting.ScheduleEnabled, p.ScheduleEnabled)
	applyBool(&setting.TodoEnabled, p.TodoEnabled)
	applyBool(&setting.NoticeEnabled, p.NoticeEnabled)
	if setting.SchedulePreMinutes, err = s.applyOffsets(setting.SchedulePreMinutes, p.SchedulePreMinutes); err != nil {
		return nil, err
	}
	if setting.TodoPreMinutes, err = s.applyOffsets(setting.TodoPreMinutes, p.TodoPreMinutes); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, setting); err != nil {
		return nil, fmt.Errorf("error saving personal setting: %w", err)
	}
	return setting, nil
}

// RegisterDevice stores the push address used for userID.
func (s *SettingsService) RegisterDevice(ctx context.Context, userID, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("%w: address is required", common.ErrorValidation)
	}
	if err := s.repomanager.DeviceTokens(s.db).Upsert(ctx, userID, address); err != nil {
		return fmt.Errorf("error saving device: %w", err)
	}
	return nil
}

func (s *SettingsService) checkMember(ctx context.Context, userID, teamID string) error {
	ok, err := s.repomanager.Memberships(s.db).IsMember(ctx, userID, teamID)
	if err != nil {
		return fmt.Errorf("error checking membership: %w", err)
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}

func applyBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (s *SettingsService) applyOffsets(cur []int, v *[]int) ([]int, error) {
	if v == nil {
		return cur, nil
	}
	return NormalizeOffsets(*v, s.maxOffset)
}

// NormalizeOffsets checks that every offset is within 1..maxMinutes and
// returns them sorted without duplicates.
func NormalizeOffsets(in []int, maxMinutes int) ([]int, error) {
	out := make([]int, 0, len(in))
	for _, m := range in {
		if m < 1 || m > maxMinutes {
			return nil, fmt.Errorf("%w: offset %d outside 1..%d minutes", common.ErrorValidation, m, maxMinutes)
		}
		out = append(out, m)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
