// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/rotating JWTs
// plus server-stored refresh tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/keylock"
	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/server/auth"
	"github.com/dmitrijs2005/teamboard/internal/server/config"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate a refresh token into a new pair, exactly once
// - Logout: burn a refresh token
type UserService struct {
	db                           dbx.DBTX
	tx                           dbx.TxRunner
	repomanager                  repomanager.RepositoryManager
	locks                        *keylock.KeyedMutex
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	passwordCost                 int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		tx:                           tx,
		repomanager:                  m,
		locks:                        keylock.New(),
		log:                          log.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		passwordCost:                 bcrypt.DefaultCost,
	}
}

// Register creates a new user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must be %d to %d bytes", common.ErrorValidation, minPasswordLength, maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken burns refreshToken and returns a fresh TokenPair for its owner.
//
// Outcomes: common.ErrInvalidRefreshToken for a bad signature, a non-REFRESH
// token or a token with no stored row; common.ErrAuthTokenExpired when the
// token or its row has expired. Under concurrent calls with one token value
// exactly one caller succeeds: an in-process lock serializes callers of this
// instance and the row lock taken by FindForUpdate serializes instances.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseToken(refreshToken, s.jwtSecret, auth.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrAuthTokenExpired
		}
		s.log.Debug(ctx, "refresh token rejected", "error", err)
		return nil, common.ErrInvalidRefreshToken
	}

	unlock := s.locks.Lock(refreshToken)
	defer unlock()

	var (
		pair    *TokenPair
		expired bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		row, err := repo.FindForUpdate(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if row.UserID != claims.Subject {
			return common.ErrInvalidRefreshToken
		}

		if row.Expired(auth.NowTimeFunc()) {
			if _, err := repo.Delete(ctx, refreshToken); err != nil {
				return fmt.Errorf("error deleting refresh token: %w", err)
			}
			expired = true
			return nil
		}

		deleted, err := repo.Delete(ctx, refreshToken)
		if err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if !deleted {
			return common.ErrInvalidRefreshToken
		}

		pair, err = s.generateTokenPair(ctx, row.UserID, tx)
		return err
	})
	if err != nil {
		if !errors.Is(err, common.ErrInvalidRefreshToken) {
			s.log.Error(ctx, "refresh token rotation failed", "user_id", claims.Subject, "error", err)
		}
		return nil, err
	}
	if expired {
		return nil, common.ErrAuthTokenExpired
	}
	return pair, nil
}

// Logout deletes the stored row of refreshToken. Repeating it is harmless.
// Expired tokens are still accepted so their rows can be cleaned up.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := auth.ParseToken(refreshToken, s.jwtSecret, auth.TokenTypeRefresh); err != nil && !errors.Is(err, common.ErrTokenExpired) {
		return common.ErrInvalidRefreshToken
	}
	if _, err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of userID.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error deleting refresh tokens: %w", err)
	}
	s.log.Info(ctx, "sessions revoked", "user_id", userID, "count", n)
	return nil
}

// ValidateAccessToken returns the user id carried by a valid ACCESS token.
func (s *UserService) ValidateAccessToken(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", common.ErrAuthTokenExpired
		}
		return "", common.ErrInvalidToken
	}
	return userID, nil
}

// CleanupExpired removes refresh-token rows that expired before now.
// It runs as a scheduler task.
func (s *UserService) CleanupExpired(ctx context.Context, now time.Time) error {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("error deleting expired refresh tokens: %w", err)
	}
	if n > 0 {
		s.log.Info(ctx, "expired refresh tokens removed", "count", n)
	}
	return nil
}

// --- helpers below ---

// generateTokenPair mints both tokens before touching the store so the insert
// is the last fallible step inside the caller's transaction.
func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, auth.TokenTypeAccess, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateToken(userID, auth.TokenTypeRefresh, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh.Value, refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access.Value, RefreshToken: refresh.Value}, nil
}
