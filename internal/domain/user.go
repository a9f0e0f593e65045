package domain

import (
	"errors"
	"time"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// PasswordHash is an opaque capability able to verify a candidate password.
// The repository layer produces it; the auth core only ever calls Check.
type PasswordHash interface {
	Check(candidate string) bool
}

// User is the account record the auth core reasons about.
type User struct {
	ID                    string
	FullName              string
	Email                 string
	Sex                   string
	PassportNumber        string
	PhoneNumber           string
	Birthdate             *time.Time
	Nationality           string
	PasswordHash          PasswordHash
	Role                  string
	Status                UserStatus
	WrongLoginCount       int
	LastWrongLoginAttempt *time.Time
	LastLogin             *time.Time
	LastLoginIP           string
	LastLoginUserAgent    string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SignUpProfile carries the fields collected at registration.
type SignUpProfile struct {
	FullName       string
	Email          string
	Sex            string
	PassportNumber string
	PhoneNumber    string
	Birthdate      time.Time
	Nationality    string
	Password       string
}

// ErrUserNotFound is returned by user lookups that match no row.
var ErrUserNotFound = errors.New("user not found")
