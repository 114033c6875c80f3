package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/server/auth"
	"github.com/dmitrijs2005/teamboard/internal/server/config"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "k"

func newUserService(t *testing.T, rm repomanager.RepositoryManager, tx dbx.TxRunner) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    testSecret,
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	s := NewUserService(nil, tx, rm, cfg, logging.Nop())
	s.passwordCost = bcrypt.MinCost
	return s
}

// seedRefresh stores a valid refresh token for userID and returns it.
func seedRefresh(t *testing.T, r *fakeRefreshRepo, userID string, rowExpires time.Time) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	require.NoError(t, r.Create(context.Background(), userID, tok.Value, rowExpires))
	return tok.Value
}

func TestRefreshToken_RotatesAndBurnsOldToken(t *testing.T) {
	rm := newFakeRepoManager()
	tx := &fakeTx{}
	s := newUserService(t, rm, tx)
	old := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))

	pair, err := s.RefreshToken(context.Background(), old)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, old, pair.RefreshToken)
	assert.False(t, rm.r.has(old))
	assert.True(t, rm.r.has(pair.RefreshToken))

	userID, err := s.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = s.RefreshToken(context.Background(), old)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefreshToken_ConcurrentSameTokenSucceedsOnce(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	tok := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.RefreshToken(context.Background(), tok)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrInvalidRefreshToken):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, 1, rm.r.len(), "exactly one live session after the race")
	assert.Equal(t, 0, s.locks.Len())
}

func TestRefreshToken_DifferentTokensDoNotBlockEachOther(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	a := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
	b := seedRefresh(t, rm.r, "u2", time.Now().Add(time.Hour))

	unlock := s.locks.Lock(a)
	defer unlock()

	done := make(chan error, 1)
	go func() {
		_, err := s.RefreshToken(context.Background(), b)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("rotation of another token blocked")
	}
}

func TestRefreshToken_ExpiredRow(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	tok := seedRefresh(t, rm.r, "u1", time.Now().Add(-time.Minute))

	_, err := s.RefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrAuthTokenExpired)
	assert.False(t, rm.r.has(tok), "expired row is removed")

	_, err = s.RefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefreshToken_ExpiredClaims(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})

	orig := auth.NowTimeFunc
	auth.NowTimeFunc = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	tok := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
	auth.NowTimeFunc = orig

	_, err := s.RefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrAuthTokenExpired)
}

func TestRefreshToken_Rejections(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})

	access, err := auth.GenerateToken("u1", auth.TokenTypeAccess, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	require.NoError(t, rm.r.Create(context.Background(), "u1", access.Value, time.Now().Add(time.Hour)))

	expiredAccess, err := auth.GenerateToken("u1", auth.TokenTypeAccess, []byte(testSecret), -time.Hour)
	require.NoError(t, err)

	foreign, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte("other"), time.Hour)
	require.NoError(t, err)
	require.NoError(t, rm.r.Create(context.Background(), "u1", foreign.Value, time.Now().Add(time.Hour)))

	unknown, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	stolen, err := auth.GenerateToken("u2", auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	require.NoError(t, rm.r.Create(context.Background(), "u1", stolen.Value, time.Now().Add(time.Hour)))

	tests := []struct {
		name  string
		token string
	}{
		{"access token", access.Value},
		{"expired access token", expiredAccess.Value},
		{"bad signature", foreign.Value},
		{"never stored", unknown.Value},
		{"subject mismatch", stolen.Value},
		{"garbage", "not-a-jwt"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RefreshToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
		})
	}
	assert.True(t, rm.r.has(access.Value), "rejected tokens leave the store untouched")
}

func TestRefreshToken_StoreErrors(t *testing.T) {
	t.Run("find", func(t *testing.T) {
		rm := newFakeRepoManager()
		s := newUserService(t, rm, &fakeTx{})
		tok := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
		rm.r.findErr = errBoom{}

		_, err := s.RefreshToken(context.Background(), tok)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error searching refresh token: boom")
	})

	t.Run("delete", func(t *testing.T) {
		rm := newFakeRepoManager()
		s := newUserService(t, rm, &fakeTx{})
		tok := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
		rm.r.delErr = errBoom{}

		_, err := s.RefreshToken(context.Background(), tok)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error deleting refresh token: boom")
	})

	t.Run("create", func(t *testing.T) {
		rm := newFakeRepoManager()
		s := newUserService(t, rm, &fakeTx{})
		tok := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
		rm.r.createErr = errBoom{}

		_, err := s.RefreshToken(context.Background(), tok)
		assert.ErrorIs(t, err, common.ErrorInternal)
	})
}

const (
	selectForUpdateQ = `(?s)^\s*SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s+FOR\s+UPDATE\s*$`
	deleteQ          = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	insertQ          = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
)

func TestRefreshToken_PostgresTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tok, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdateQ).WithArgs(tok.Value).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow("r1", "u1", tok.Value, time.Now().Add(time.Hour), time.Now()))
	mock.ExpectExec(deleteQ).WithArgs(tok.Value).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQ).WithArgs("u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := newUserService(t, repomanager.NewPostgresRepositoryManager(), dbx.NewSQLTxRunner(db, nil))
	s.db = db

	pair, err := s.RefreshToken(context.Background(), tok.Value)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_PostgresRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tok, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdateQ).WithArgs(tok.Value).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow("r1", "u1", tok.Value, time.Now().Add(time.Hour), time.Now()))
	mock.ExpectExec(deleteQ).WithArgs(tok.Value).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQ).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	s := newUserService(t, repomanager.NewPostgresRepositoryManager(), dbx.NewSQLTxRunner(db, nil))

	_, err = s.RefreshToken(context.Background(), tok.Value)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_PostgresExpiredRowCommitsDelete(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tok, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdateQ).WithArgs(tok.Value).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow("r1", "u1", tok.Value, time.Now().Add(-time.Second), time.Now()))
	mock.ExpectExec(deleteQ).WithArgs(tok.Value).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := newUserService(t, repomanager.NewPostgresRepositoryManager(), dbx.NewSQLTxRunner(db, nil))

	_, err = s.RefreshToken(context.Background(), tok.Value)
	assert.ErrorIs(t, err, common.ErrAuthTokenExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterAndLogin(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	ctx := context.Background()

	u, err := s.Register(ctx, " alice ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.NotEqual(t, "correct horse", string(u.PasswordHash))

	_, err = s.Register(ctx, "alice", "another one")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	pair, err := s.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.True(t, rm.r.has(pair.RefreshToken))

	_, err = s.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "ghost", "whatever1")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	s := newUserService(t, newFakeRepoManager(), &fakeTx{})

	tests := []struct {
		name, user, pass string
	}{
		{"empty username", "  ", "password1"},
		{"short password", "bob", "short"},
		{"long password", "bob", string(make([]byte, 73))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.user, tt.pass)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestLogin_InternalError(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.getErr = errBoom{}
	s := newUserService(t, rm, &fakeTx{})

	_, err := s.Login(context.Background(), "alice", "password1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogout(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	tok := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))

	require.NoError(t, s.Logout(context.Background(), tok))
	assert.False(t, rm.r.has(tok))
	require.NoError(t, s.Logout(context.Background(), tok), "second logout is a no-op")

	_, err := s.RefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	assert.ErrorIs(t, s.Logout(context.Background(), "garbage"), common.ErrInvalidRefreshToken)
}

func TestLogoutAll(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	a := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
	b := seedRefresh(t, rm.r, "u1", time.Now().Add(2*time.Hour))
	other := seedRefresh(t, rm.r, "u2", time.Now().Add(time.Hour))

	require.NoError(t, s.LogoutAll(context.Background(), "u1"))
	assert.False(t, rm.r.has(a))
	assert.False(t, rm.r.has(b))
	assert.True(t, rm.r.has(other))
}

func TestValidateAccessToken(t *testing.T) {
	s := newUserService(t, newFakeRepoManager(), &fakeTx{})

	refresh, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	_, err = s.ValidateAccessToken(refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "refresh tokens are not access tokens")

	expiredRefresh, err := auth.GenerateToken("u1", auth.TokenTypeRefresh, []byte(testSecret), -time.Hour)
	require.NoError(t, err)
	_, err = s.ValidateAccessToken(expiredRefresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	orig := auth.NowTimeFunc
	auth.NowTimeFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := auth.GenerateToken("u1", auth.TokenTypeAccess, []byte(testSecret), time.Hour)
	auth.NowTimeFunc = orig
	require.NoError(t, err)
	_, err = s.ValidateAccessToken(old.Value)
	assert.ErrorIs(t, err, common.ErrAuthTokenExpired)
}

func TestCleanupExpired(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm, &fakeTx{})
	live := seedRefresh(t, rm.r, "u1", time.Now().Add(time.Hour))
	dead := seedRefresh(t, rm.r, "u1", time.Now().Add(-time.Hour))

	require.NoError(t, s.CleanupExpired(context.Background(), time.Now()))
	assert.True(t, rm.r.has(live))
	assert.False(t, rm.r.has(dead))
}
