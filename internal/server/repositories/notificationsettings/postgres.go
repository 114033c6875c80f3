package notificationsettings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error) {
	query := `
		SELECT user_id, team_id, team_alarm_enabled, schedule_enabled, schedule_pre_minutes,
		       todo_enabled, todo_pre_minutes, notice_enabled, updated_at
		FROM notification_settings
		WHERE user_id = $1 AND team_id = $2
	`
	var (
		s            models.NotificationSetting
		schedOffsets dbx.IntArray
		todoOffsets  dbx.IntArray
	)
	err := r.db.QueryRowContext(ctx, query, userID, teamID).Scan(
		&s.UserID, &s.TeamID, &s.TeamAlarmEnabled, &s.ScheduleEnabled, &schedOffsets,
		&s.TodoEnabled, &todoOffsets, &s.NoticeEnabled, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.SchedulePreMinutes = []int(schedOffsets)
	s.TodoPreMinutes = []int(todoOffsets)
	return &s, nil
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error) {
	d := models.DefaultNotificationSetting(userID, teamID)
	query := `
		INSERT INTO notification_settings (user_id, team_id, team_alarm_enabled, schedule_enabled,
		    schedule_pre_minutes, todo_enabled, todo_pre_minutes, notice_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, team_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, d.UserID, d.TeamID, d.TeamAlarmEnabled, d.ScheduleEnabled,
		dbx.IntArray(d.SchedulePreMinutes), d.TodoEnabled, dbx.IntArray(d.TodoPreMinutes), d.NoticeEnabled)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.Find(ctx, userID, teamID)
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.NotificationSetting) error {
	query := `
		INSERT INTO notification_settings (user_id, team_id, team_alarm_enabled, schedule_enabled,
		    schedule_pre_minutes, todo_enabled, todo_pre_minutes, notice_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id, team_id) DO UPDATE SET
		    team_alarm_enabled = EXCLUDED.team_alarm_enabled,
		    schedule_enabled = EXCLUDED.schedule_enabled,
		    schedule_pre_minutes = EXCLUDED.schedule_pre_minutes,
		    todo_enabled = EXCLUDED.todo_enabled,
		    todo_pre_minutes = EXCLUDED.todo_pre_minutes,
		    notice_enabled = EXCLUDED.notice_enabled,
		    updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query, s.UserID, s.TeamID, s.TeamAlarmEnabled, s.ScheduleEnabled,
		dbx.IntArray(s.SchedulePreMinutes), s.TodoEnabled, dbx.IntArray(s.TodoPreMinutes), s.NoticeEnabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
