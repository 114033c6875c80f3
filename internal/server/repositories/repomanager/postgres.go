// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/server/migrations"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/devicetokens"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/memberships"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/notificationsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/personalsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/schedules"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/todos"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Memberships(db dbx.DBTX) memberships.Repository {
	return memberships.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) NotificationSettings(db dbx.DBTX) notificationsettings.Repository {
	return notificationsettings.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PersonalSettings(db dbx.DBTX) personalsettings.Repository {
	return personalsettings.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Schedules(db dbx.DBTX) schedules.Repository {
	return schedules.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Todos(db dbx.DBTX) todos.Repository {
	return todos.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) DeviceTokens(db dbx.DBTX) devicetokens.Repository {
	return devicetokens.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
