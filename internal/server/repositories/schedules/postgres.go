package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListDue(ctx context.Context, from, to time.Time) ([]*models.DueItem, error) {
	query := `
		SELECT s.id, s.team_id, s.title, s.start_at, tm.user_id
		FROM schedules s
		JOIN schedule_attendees sa ON sa.schedule_id = s.id
		JOIN team_members tm ON tm.id = sa.member_id
		WHERE s.start_at BETWEEN $1 AND $2
		ORDER BY s.start_at, s.id, tm.user_id
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.DueItem
	for rows.Next() {
		var (
			id, teamID, title, userID string
			startAt                   time.Time
		)
		if err := rows.Scan(&id, &teamID, &title, &startAt, &userID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = models.AppendDueRow(items, id, teamID, title, startAt, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}
