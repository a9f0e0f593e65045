package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User      domain.User
	Role      Role
	Rights    []Right
	Audience  domain.Audience
	IP        string
	UserAgent string
}

// HasRight reports whether the principal carries the right.
func (p *Principal) HasRight(right Right) bool {
	return HasPermission(p.Rights, right)
}

// RequestContext rebuilds the request metadata captured at authentication.
func (p *Principal) RequestContext() domain.RequestContext {
	return domain.RequestContext{IP: p.IP, UserAgent: p.UserAgent}
}

// SessionAuthenticator decodes and validates bearer tokens.
type SessionAuthenticator interface {
	DecodeToken(raw string) (*SessionClaims, error)
	ValidateToken(ctx context.Context, req domain.RequestContext, claims *SessionClaims) (TokenValidationResult, error)
}

// TokenMiddleware validates bearer tokens and loads principals.
type TokenMiddleware struct {
	sessions SessionAuthenticator
	logger   *zap.Logger
}

// NewTokenMiddleware constructs middleware.
func NewTokenMiddleware(sessions SessionAuthenticator, logger *zap.Logger) *TokenMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenMiddleware{sessions: sessions, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *TokenMiddleware) Handle(c *fiber.Ctx) error {
	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return ErrTokenNotFound
	}

	req := RequestContextFromFiber(c)
	claims, err := m.sessions.DecodeToken(raw)
	if err != nil {
		m.logger.Debug("token decode failed", zap.Error(err))
		claims = nil
	}

	result, err := m.sessions.ValidateToken(c.UserContext(), req, claims)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := result.Status.Err(); err != nil {
		return err
	}

	user := *result.User
	user.PasswordHash = nil
	c.Locals(principalKey, &Principal{
		User:      user,
		Role:      result.Role,
		Rights:    result.Rights,
		Audience:  result.Audience,
		IP:        result.IP,
		UserAgent: result.UserAgent,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequestContextFromFiber extracts client IP and user agent.
func RequestContextFromFiber(c *fiber.Ctx) domain.RequestContext {
	return domain.RequestContext{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
