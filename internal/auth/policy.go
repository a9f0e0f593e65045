package auth

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

const (
	DefaultMaxLoginAttempts     = 3
	DefaultAccountBlockDuration = time.Hour
)

// AccountSecurityPolicy decides lockout state from a user's failed-login record.
type AccountSecurityPolicy struct {
	maxAttempts int
	blockFor    time.Duration
}

// NewAccountSecurityPolicy falls back to defaults for non-positive values.
func NewAccountSecurityPolicy(maxAttempts int, blockFor time.Duration) *AccountSecurityPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if blockFor <= 0 {
		blockFor = DefaultAccountBlockDuration
	}
	return &AccountSecurityPolicy{maxAttempts: maxAttempts, blockFor: blockFor}
}

// MaxAttempts is the failed-login threshold that triggers a block.
func (p *AccountSecurityPolicy) MaxAttempts() int { return p.maxAttempts }

// BlockDuration is how long a blocked account stays locked.
func (p *AccountSecurityPolicy) BlockDuration() time.Duration { return p.blockFor }

// NextWrongLoginCount increments current, wrapping to 1 once it would pass the threshold.
func (p *AccountSecurityPolicy) NextWrongLoginCount(current int) int {
	next := current + 1
	if next > p.maxAttempts {
		return 1
	}
	return next
}

// RecordFailedLogin returns the counter value the caller must persist
// together with a fresh last-wrong-attempt timestamp.
func (p *AccountSecurityPolicy) RecordFailedLogin(user *domain.User) int {
	return p.NextWrongLoginCount(user.WrongLoginCount)
}

// IsBlocked reports whether the user is inside an active lockout window.
// The block lifts on its own once the window has elapsed.
func (p *AccountSecurityPolicy) IsBlocked(user *domain.User, now time.Time) bool {
	if user.WrongLoginCount < p.maxAttempts || user.LastWrongLoginAttempt == nil {
		return false
	}
	return now.Before(user.LastWrongLoginAttempt.Add(p.blockFor))
}

// CanLogin fails with ErrInactiveUser for a non-ACTIVE account. For an ACTIVE
// one it reports whether the role grants RightLogin; callers treat false as a
// failed attempt.
func (p *AccountSecurityPolicy) CanLogin(user *domain.User) (bool, error) {
	if user.Status != domain.UserStatusActive {
		return false, ErrInactiveUser
	}
	role, err := ParseRole(user.Role)
	if err != nil {
		return false, err
	}
	return role.HasRight(RightLogin), nil
}
