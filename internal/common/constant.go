// Package common contains shared constants and sentinel errors used across
// teamboard components.
package common

// AuthorizationHeaderName is the HTTP header carrying bearer tokens.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value in the Authorization header.
const BearerPrefix = "Bearer "

// Error codes returned to HTTP clients.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeAuthTokenExpired    = "AUTH_TOKEN_EXPIRED"
	CodeInvalidAccessToken  = "INVALID_ACCESS_TOKEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeValidation          = "VALIDATION_ERROR"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInternal            = "INTERNAL_ERROR"
)
