package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/devicetokens"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/memberships"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/notificationsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/personalsettings"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/schedules"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/todos"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeTx runs fn directly. It does not roll back; tests that need rollback
// semantics go through dbx.SQLTxRunner with sqlmock.
type fakeTx struct {
	calls int
	mu    sync.Mutex
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx, nil)
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	getErr error
	next   int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.next++
	u.ID = "u" + string(rune('0'+f.next))
	u.CreatedAt = time.Now()
	f.byName[u.UserName] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// fakeRefreshRepo is an in-memory TokenStore.
type fakeRefreshRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{rows: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[token] = &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) FindForUpdate(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	rt, ok := f.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return false, f.delErr
	}
	_, ok := f.rows[token]
	delete(f.rows, token)
	return ok, nil
}

func (f *fakeRefreshRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.rows {
		if v.UserID == userID {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.rows {
		if v.ExpiresAt.Before(before) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshRepo) has(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[token]
	return ok
}

func (f *fakeRefreshRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeMemberships struct {
	members map[string]bool // userID/teamID
	err     error
}

func (f *fakeMemberships) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[userID+"/"+teamID], nil
}

type fakeTeamSettings struct {
	rows      map[string]*models.NotificationSetting
	updateErr error
}

func (f *fakeTeamSettings) Find(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error) {
	s, ok := f.rows[userID+"/"+teamID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeTeamSettings) GetOrCreate(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error) {
	if _, ok := f.rows[userID+"/"+teamID]; !ok {
		f.rows[userID+"/"+teamID] = models.DefaultNotificationSetting(userID, teamID)
	}
	return f.Find(ctx, userID, teamID)
}

func (f *fakeTeamSettings) Update(ctx context.Context, s *models.NotificationSetting) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *s
	f.rows[s.UserID+"/"+s.TeamID] = &cp
	return nil
}

type fakePersonalSettings struct {
	rows map[string]*models.PersonalNotificationSetting
}

func (f *fakePersonalSettings) Find(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error) {
	s, ok := f.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakePersonalSettings) GetOrCreate(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error) {
	if _, ok := f.rows[userID]; !ok {
		f.rows[userID] = models.DefaultPersonalNotificationSetting(userID)
	}
	return f.Find(ctx, userID)
}

func (f *fakePersonalSettings) Update(ctx context.Context, s *models.PersonalNotificationSetting) error {
	cp := *s
	f.rows[s.UserID] = &cp
	return nil
}

type fakeDevices struct {
	addrs map[string]string
}

func (f *fakeDevices) FindAddress(ctx context.Context, userID string) (string, error) {
	a, ok := f.addrs[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeDevices) Upsert(ctx context.Context, userID, address string) error {
	f.addrs[userID] = address
	return nil
}

type fakeRepoManager struct {
	u        *fakeUsersRepo
	r        *fakeRefreshRepo
	m        *fakeMemberships
	team     *fakeTeamSettings
	personal *fakePersonalSettings
	devices  *fakeDevices
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:        newFakeUsersRepo(),
		r:        newFakeRefreshRepo(),
		m:        &fakeMemberships{members: map[string]bool{}},
		team:     &fakeTeamSettings{rows: map[string]*models.NotificationSetting{}},
		personal: &fakePersonalSettings{rows: map[string]*models.PersonalNotificationSetting{}},
		devices:  &fakeDevices{addrs: map[string]string{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                       { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository       { return m.r }
func (m *fakeRepoManager) Memberships(dbx.DBTX) memberships.Repository           { return m.m }
func (m *fakeRepoManager) Schedules(dbx.DBTX) schedules.Repository               { return nil }
func (m *fakeRepoManager) Todos(dbx.DBTX) todos.Repository                       { return nil }
func (m *fakeRepoManager) DeviceTokens(dbx.DBTX) devicetokens.Repository         { return m.devices }
func (m *fakeRepoManager) PersonalSettings(dbx.DBTX) personalsettings.Repository { return m.personal }
func (m *fakeRepoManager) NotificationSettings(dbx.DBTX) notificationsettings.Repository {
	return m.team
}
