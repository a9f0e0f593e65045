package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

type stubSessions struct {
	decodeErr error
	result    auth.TokenValidationResult
	err       error
	gotClaims *auth.SessionClaims
}

func (s *stubSessions) DecodeToken(raw string) (*auth.SessionClaims, error) {
	if s.decodeErr != nil {
		return nil, s.decodeErr
	}
	return &auth.SessionClaims{Subject: raw}, nil
}

func (s *stubSessions) ValidateToken(_ context.Context, _ domain.RequestContext, claims *auth.SessionClaims) (auth.TokenValidationResult, error) {
	s.gotClaims = claims
	return s.result, s.err
}

func newGuardedApp(sessions auth.SessionAuthenticator, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	handlers := []fiber.Handler{auth.NewTokenMiddleware(sessions, nil).Handle}
	handlers = append(handlers, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, ok := auth.PrincipalFromContext(c)
		if !ok {
			return errors.New("principal missing")
		}
		if p.User.PasswordHash != nil {
			return errors.New("password hash leaked into principal")
		}
		return c.SendString(p.User.ID)
	})
	app.Get("/protected", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, authz string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func validResult(role auth.Role) auth.TokenValidationResult {
	return auth.TokenValidationResult{
		Status:   auth.StatusValid,
		User:     &domain.User{ID: "u-1", Role: role.String(), PasswordHash: auth.BcryptHash("x")},
		Role:     role,
		Rights:   role.Rights(),
		Audience: domain.AudienceWeb,
	}
}

func TestTokenMiddlewareStatuses(t *testing.T) {
	cases := []struct {
		status auth.ValidationStatus
		code   int
	}{
		{auth.StatusExpired, http.StatusUnauthorized},
		{auth.StatusInvalidUser, http.StatusUnauthorized},
		{auth.StatusInactiveUser, http.StatusUnauthorized},
		{auth.StatusOldVersion, http.StatusUpgradeRequired},
		{auth.StatusInvalidToken, http.StatusUpgradeRequired},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			app := newGuardedApp(&stubSessions{result: auth.TokenValidationResult{Status: tc.status}})
			resp := doGet(t, app, "Bearer abc")
			require.Equal(t, tc.code, resp.StatusCode)
		})
	}
}

func TestTokenMiddlewareMissingHeader(t *testing.T) {
	app := newGuardedApp(&stubSessions{result: validResult(auth.RoleUser)})
	require.Equal(t, http.StatusUnauthorized, doGet(t, app, "").StatusCode)
	require.Equal(t, http.StatusUnauthorized, doGet(t, app, "Basic abc").StatusCode)
	require.Equal(t, http.StatusUnauthorized, doGet(t, app, "Bearer ").StatusCode)
}

func TestTokenMiddlewareDecodeFailurePassesNilClaims(t *testing.T) {
	stub := &stubSessions{decodeErr: auth.ErrInvalidToken, result: auth.TokenValidationResult{Status: auth.StatusInvalidToken}}
	app := newGuardedApp(stub)

	resp := doGet(t, app, "Bearer broken")
	require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	require.Nil(t, stub.gotClaims)
}

func TestTokenMiddlewareLookupFailureIsServerError(t *testing.T) {
	app := newGuardedApp(&stubSessions{err: context.DeadlineExceeded})
	require.Equal(t, http.StatusInternalServerError, doGet(t, app, "Bearer abc").StatusCode)
}

func TestTokenMiddlewareValid(t *testing.T) {
	app := newGuardedApp(&stubSessions{result: validResult(auth.RoleUser)})
	require.Equal(t, http.StatusOK, doGet(t, app, "bearer abc").StatusCode)
}

func TestRequireRight(t *testing.T) {
	allowed := newGuardedApp(&stubSessions{result: validResult(auth.RoleAdmin)}, auth.RequireRight(auth.RightManageUsers))
	require.Equal(t, http.StatusOK, doGet(t, allowed, "Bearer abc").StatusCode)

	denied := newGuardedApp(&stubSessions{result: validResult(auth.RoleUser)}, auth.RequireRight(auth.RightManageUsers))
	require.Equal(t, http.StatusForbidden, doGet(t, denied, "Bearer abc").StatusCode)

	anyOf := newGuardedApp(&stubSessions{result: validResult(auth.RoleUser)}, auth.RequireRight(auth.RightManageUsers, auth.RightViewProfile))
	require.Equal(t, http.StatusOK, doGet(t, anyOf, "Bearer abc").StatusCode)
}

func TestRequireAudience(t *testing.T) {
	web := newGuardedApp(&stubSessions{result: validResult(auth.RoleUser)}, auth.RequireAudience(domain.AudienceWeb))
	require.Equal(t, http.StatusOK, doGet(t, web, "Bearer abc").StatusCode)

	appOnly := newGuardedApp(&stubSessions{result: validResult(auth.RoleUser)}, auth.RequireAudience(domain.AudienceApp))
	require.Equal(t, http.StatusForbidden, doGet(t, appOnly, "Bearer abc").StatusCode)
}
