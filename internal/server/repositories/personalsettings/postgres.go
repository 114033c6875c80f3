package personalsettings

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

// Find returns common.ErrorNotFound when the user never stored a preference.
func (r *PostgresRepository) Find(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error) {
	query := `
		SELECT user_id, all_enabled, schedule_enabled, schedule_pre_minutes,
		       todo_enabled, todo_pre_minutes, notice_enabled, updated_at
		FROM personal_notification_settings
		WHERE user_id = $1
	`
	var (
		s            models.PersonalNotificationSetting
		schedOffsets dbx.IntArray
		todoOffsets  dbx.IntArray
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.AllEnabled, &s.ScheduleEnabled, &schedOffsets,
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

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error) {
	d := models.DefaultPersonalNotificationSetting(userID)
	query := `
		INSERT INTO personal_notification_settings (user_id, all_enabled, schedule_enabled,
		    schedule_pre_minutes, todo_enabled, todo_pre_minutes, notice_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, d.UserID, d.AllEnabled, d.ScheduleEnabled,
		dbx.IntArray(d.SchedulePreMinutes), d.TodoEnabled, dbx.IntArray(d.TodoPreMinutes), d.NoticeEnabled)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.Find(ctx, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.PersonalNotificationSetting) error {
	query := `
		INSERT INTO personal_notification_settings (user_id, all_enabled, schedule_enabled,
		    schedule_pre_minutes, todo_enabled, todo_pre_minutes, notice_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id) DO UPDATE SET
		    all_enabled = EXCLUDED.all_enabled,
		    schedule_enabled = EXCLUDED.schedule_enabled,
		    schedule_pre_minutes = EXCLUDED.schedule_pre_minutes,
		    todo_enabled = EXCLUDED.todo_enabled,
		    todo_pre_minutes = EXCLUDED.todo_pre_minutes,
		    notice_enabled = EXCLUDED.notice_enabled,
		    updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query, s.UserID, s.AllEnabled, s.ScheduleEnabled,
		dbx.IntArray(s.SchedulePreMinutes), s.TodoEnabled, dbx.IntArray(s.TodoPreMinutes), s.NoticeEnabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
