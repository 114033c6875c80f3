package memberships

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/teamboard/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_members WHERE user_id = $1 AND team_id = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, teamID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
