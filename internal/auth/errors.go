package auth

import (
	"net/http"

	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// Login and account errors.
var (
	ErrInvalidCredentials = apperrors.NewUnauthorized(apperrors.FormatErrorKey("login", "invalidCredentials"), "invalid credentials")
	ErrAccountBlocked     = apperrors.NewUnauthorized(apperrors.FormatErrorKey("login", "accountBlocked"), "account blocked")
	ErrInactiveUser       = apperrors.NewUnauthorized(apperrors.FormatErrorKey("user", "inactiveUser"), "user inactive")
)

// Token errors, keyed the way the token middleware reports them.
var (
	ErrTokenNotFound     = apperrors.NewUnauthorized(apperrors.FormatErrorKey("authToken", "notFound"), "bearer token missing")
	ErrTokenExpired      = apperrors.NewUnauthorized(apperrors.FormatErrorKey("authToken", "expired"), "token expired")
	ErrTokenInvalidUser  = apperrors.NewUnauthorized(apperrors.FormatErrorKey("authToken", "invalidUser"), "token user not found")
	ErrTokenInactiveUser = apperrors.NewUnauthorized(apperrors.FormatErrorKey("authToken", "inactiveUser"), "token user inactive")
	ErrOldTokenVersion   = apperrors.NewUpgradeRequired(apperrors.FormatErrorKey("authToken", "invalidApiVersion"), "token schema version outdated")
	ErrInvalidToken      = apperrors.NewUpgradeRequired(apperrors.FormatErrorKey("authToken", "invalidToken"), "token invalid")
)

// ErrForbidden is returned by right guards.
var ErrForbidden = apperrors.NewForbidden(apperrors.FormatErrorKey("authorization", "forbidden"), "missing required right")

// Configuration errors. Both are fatal and never retried.
var (
	ErrInvalidRole = apperrors.NewDomainError(apperrors.FormatErrorKey("role", "notFound"), "invalid role", http.StatusInternalServerError, nil)
	ErrSigning     = apperrors.NewDomainError(apperrors.FormatErrorKey("authToken", "signingFailed"), "token signing failed", http.StatusInternalServerError, nil)
)
