package util_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

func TestFormatErrorKey(t *testing.T) {
	require.Equal(t, "error.login.invalidCredentials", apperrors.FormatErrorKey("login", "invalidCredentials"))
}

func TestToDomainErrorUnwrapsWrappedDomainError(t *testing.T) {
	sentinel := apperrors.NewUnauthorized("error.authToken.expired", "token expired")
	wrapped := fmt.Errorf("%w: at 12:00", sentinel)

	de := apperrors.ToDomainError(wrapped)
	require.Same(t, sentinel, de)
	require.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
}

func TestToDomainErrorMapsFiberErrors(t *testing.T) {
	de := apperrors.ToDomainError(fiber.ErrNotFound)
	require.Equal(t, apperrors.CodeNotFound, de.Code)
	require.Equal(t, http.StatusNotFound, de.HTTPStatus)

	de = apperrors.ToDomainError(fiber.ErrBadRequest)
	require.Equal(t, apperrors.CodeValidation, de.Code)

	de = apperrors.ToDomainError(fiber.ErrServiceUnavailable)
	require.Equal(t, apperrors.CodeInternal, de.Code)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := apperrors.ToDomainError(fmt.Errorf("scan: %w", pgx.ErrNoRows))
	require.Equal(t, apperrors.CodeNotFound, de.Code)
	require.ErrorIs(t, de, pgx.ErrNoRows)
}

func TestToDomainErrorMasksUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	de := apperrors.ToDomainError(cause)
	require.Equal(t, apperrors.CodeInternal, de.Code)
	require.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	require.NotContains(t, de.Message, "connection reset")
	require.ErrorIs(t, de, cause)

	require.Nil(t, apperrors.ToDomainError(nil))
}

func TestValidationErrorCarriesDetails(t *testing.T) {
	err := apperrors.NewValidationError("invalid payload", map[string]any{"email": "must be a valid email address"})

	de := apperrors.ToDomainError(err)
	require.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	require.Equal(t, "must be a valid email address", de.Details["email"])
}
