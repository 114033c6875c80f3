package todos

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

// ListDue skips completed todos; nobody needs a reminder for finished work.
func (r *PostgresRepository) ListDue(ctx context.Context, from, to time.Time) ([]*models.DueItem, error) {
	query := `
		SELECT t.id, t.team_id, t.title, t.end_at, tm.user_id
		FROM todos t
		JOIN todo_assignees ta ON ta.todo_id = t.id
		JOIN team_members tm ON tm.id = ta.member_id
		WHERE t.end_at BETWEEN $1 AND $2
		  AND NOT t.completed
		ORDER BY t.end_at, t.id, tm.user_id
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
			endAt                     time.Time
		)
		if err := rows.Scan(&id, &teamID, &title, &endAt, &userID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = models.AppendDueRow(items, id, teamID, title, endAt, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}
