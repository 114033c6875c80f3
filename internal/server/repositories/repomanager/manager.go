package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/devicetokens"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/memberships"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/notificationsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/personalsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/schedules"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/todos"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Memberships(db dbx.DBTX) memberships.Repository
	NotificationSettings(db dbx.DBTX) notificationsettings.Repository
	PersonalSettings(db dbx.DBTX) personalsettings.Repository
	Schedules(db dbx.DBTX) schedules.Repository
	Todos(db dbx.DBTX) todos.Repository
	DeviceTokens(db dbx.DBTX) devicetokens.Repository
}
