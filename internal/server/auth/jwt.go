// Package auth encodes and decodes the signed session tokens handed to
// clients. Both access and refresh tokens are HS256 JWTs that differ only in
// their "type" claim and lifetime.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenType tags a token with the endpoint family that accepts it.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// Claims carries sub, iat, exp and jti from the registered set plus the
// token type. jti keeps two tokens minted in the same second distinct.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type"`
}

// IssuedToken is a signed token together with its expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// GenerateToken signs a token of the given type for userID.
func GenerateToken(userID string, typ TokenType, secretKey []byte, validityDuration time.Duration) (*IssuedToken, error) {
	now := NowTimeFunc()
	expiresAt := now.Add(validityDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Type: typ,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Value: tokenString, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies signature, expiry and type and returns the claims.
//
// An expired token of the wanted type yields common.ErrTokenExpired; every
// other failure, including a type mismatch on an expired token, yields an
// error wrapping common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, want TokenType) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(NowTimeFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// The signature is verified before expiry, so claims are trustworthy here.
		if errors.Is(err, jwt.ErrTokenExpired) {
			if claims.Type != want {
				return nil, fmt.Errorf("%w: type %q, want %q", common.ErrInvalidToken, claims.Type, want)
			}
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Type != want {
		return nil, fmt.Errorf("%w: type %q, want %q", common.ErrInvalidToken, claims.Type, want)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", common.ErrInvalidToken)
	}

	return claims, nil
}

// GetUserIDFromToken returns the subject of a valid access token.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := ParseToken(tokenString, secretKey, TokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
