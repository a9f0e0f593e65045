package dto

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/spec-kit/auth-service/internal/domain"
)

const birthdateLayout = "2006-01-02"

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Sex            string `json:"sex"`
	PassportNumber string `json:"passportNumber"`
	PhoneNumber    string `json:"phoneNumber"`
	Birthdate      string `json:"birthdate"`
	Nationality    string `json:"nationality"`
	Password       string `json:"password"`
}

// Validate checks the registration fields.
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Sex, validation.Required, validation.In("Male", "Female", "Other")),
		validation.Field(&r.PassportNumber, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.By(validPhoneNumber)),
		validation.Field(&r.Birthdate, validation.Required, validation.By(pastDate)),
		validation.Field(&r.Nationality, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

// ToProfile converts a validated request.
func (r SignUpRequest) ToProfile() domain.SignUpProfile {
	birthdate, _ := time.Parse(birthdateLayout, r.Birthdate)
	return domain.SignUpProfile{
		FullName:       strings.TrimSpace(r.FullName),
		Email:          strings.TrimSpace(r.Email),
		Sex:            r.Sex,
		PassportNumber: strings.TrimSpace(r.PassportNumber),
		PhoneNumber:    normalizePhoneNumber(r.PhoneNumber),
		Birthdate:      birthdate,
		Nationality:    strings.TrimSpace(r.Nationality),
		Password:       r.Password,
	}
}

// SessionResponse is returned by login, signup and refresh.
type SessionResponse struct {
	Token string `json:"token"`
}

// ProfileResponse is the caller's own account view.
type ProfileResponse struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Rights      []string   `json:"rights"`
	TokenAud    string     `json:"tokenAud"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	num, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid international phone number")
	}
	return nil
}

func normalizePhoneNumber(raw string) string {
	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func pastDate(value any) error {
	raw, _ := value.(string)
	parsed, err := time.Parse(birthdateLayout, raw)
	if err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	if !parsed.Before(time.Now()) {
		return errors.New("must be in the past")
	}
	return nil
}
