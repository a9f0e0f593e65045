package auth

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// ValidationStatus is the terminal outcome of validating a session token.
type ValidationStatus string

const (
	StatusValid        ValidationStatus = "VALID"
	StatusExpired      ValidationStatus = "EXPIRED"
	StatusOldVersion   ValidationStatus = "OLD_VERSION"
	StatusInvalidUser  ValidationStatus = "INVALID_USER"
	StatusInactiveUser ValidationStatus = "INACTIVE_USER"
	StatusInvalidToken ValidationStatus = "INVALID_TOKEN"
)

// Err maps a non-VALID status to the error reported to clients.
func (s ValidationStatus) Err() error {
	switch s {
	case StatusValid:
		return nil
	case StatusExpired:
		return ErrTokenExpired
	case StatusOldVersion:
		return ErrOldTokenVersion
	case StatusInvalidUser:
		return ErrTokenInvalidUser
	case StatusInactiveUser:
		return ErrTokenInactiveUser
	default:
		return ErrInvalidToken
	}
}

// TokenValidationResult carries the user and authorization data only when
// Status is StatusValid.
type TokenValidationResult struct {
	Status    ValidationStatus
	User      *domain.User
	Role      Role
	Rights    []Right
	Audience  domain.Audience
	IP        string
	UserAgent string
}

// UserLookup fetches a user by id and returns domain.ErrUserNotFound when
// no user matches. Any other error aborts validation.
type UserLookup func(ctx context.Context, id string) (*domain.User, error)

// SubjectDecrypter recovers the user id from the encrypted subject claim.
type SubjectDecrypter interface {
	Decrypt(encoded string) (string, error)
}

// SessionValidator classifies decoded claims into exactly one ValidationStatus.
type SessionValidator struct {
	version  int
	subjects SubjectDecrypter
	now      func() time.Time
}

// ValidatorOption customizes a SessionValidator.
type ValidatorOption func(*SessionValidator)

// WithValidatorClock overrides the time source.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *SessionValidator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewSessionValidator builds a validator for the current schema version.
func NewSessionValidator(version int, subjects SubjectDecrypter, opts ...ValidatorOption) *SessionValidator {
	v := &SessionValidator{version: version, subjects: subjects, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the checks in order and stops at the first failing one.
// Only the user lookup touches storage; its non-not-found errors are returned.
func (v *SessionValidator) Validate(ctx context.Context, req domain.RequestContext, claims *SessionClaims, lookup UserLookup) (TokenValidationResult, error) {
	if claims == nil {
		return TokenValidationResult{Status: StatusInvalidToken}, nil
	}
	if v.IsExpired(v.now(), req.IP, claims) {
		return TokenValidationResult{Status: StatusExpired}, nil
	}
	if claims.Version != v.version {
		return TokenValidationResult{Status: StatusOldVersion}, nil
	}

	userID, err := v.subjects.Decrypt(claims.Subject)
	if err != nil {
		return TokenValidationResult{Status: StatusInvalidUser}, nil
	}
	user, err := lookup(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && user == nil) {
		return TokenValidationResult{Status: StatusInvalidUser}, nil
	}
	if err != nil {
		return TokenValidationResult{}, err
	}
	if user.Status != domain.UserStatusActive {
		return TokenValidationResult{Status: StatusInactiveUser}, nil
	}

	role, err := ParseRole(user.Role)
	if err != nil {
		return TokenValidationResult{}, err
	}
	return TokenValidationResult{
		Status:    StatusValid,
		User:      user,
		Role:      role,
		Rights:    role.Rights(),
		Audience:  claims.Audience,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	}, nil
}

// IsExpired applies the dual expiry rule. APP tokens never expire.
func (v *SessionValidator) IsExpired(now time.Time, ip string, claims *SessionClaims) bool {
	if claims.Audience == domain.AudienceApp {
		return false
	}
	return !ValidForGeneralExpiry(now, claims) && !ValidForSameIPExpiry(now, ip, claims)
}

// ValidForGeneralExpiry reports now < exp.
func ValidForGeneralExpiry(now time.Time, claims *SessionClaims) bool {
	return claims.ExpiresAt != nil && now.Before(claims.ExpiresAt.Time)
}

// ValidForSameIPExpiry reports a matching IP and now < exp2.time.
func ValidForSameIPExpiry(now time.Time, ip string, claims *SessionClaims) bool {
	exp := claims.SameIPExpiry
	if exp == nil || exp.Time == nil {
		return false
	}
	return exp.IP == ip && now.Before(exp.Time.Time)
}
