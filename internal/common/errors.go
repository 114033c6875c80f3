// Package common defines shared constants and sentinel errors used across
// the server layers of teamboard. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Request-shape errors.
	ErrInvalidRequest = errors.New("invalid request")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Refresh rotation outcomes surfaced to clients.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAuthTokenExpired    = errors.New("auth token expired")
)
