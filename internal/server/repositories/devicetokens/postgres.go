package devicetokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindAddress(ctx context.Context, userID string) (string, error) {
	query := `SELECT address FROM device_tokens WHERE user_id = $1`

	var address string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	if address == "" {
		return "", common.ErrorNotFound
	}
	return address, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID, address string) error {
	query := `
		INSERT INTO device_tokens (user_id, address, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET address = EXCLUDED.address, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, address); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
