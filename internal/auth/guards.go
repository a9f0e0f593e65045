package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
)

// RequireRight ensures the principal holds at least one of the rights.
func RequireRight(rights ...Right) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return ErrTokenNotFound
		}
		if len(rights) == 0 {
			return c.Next()
		}
		for _, r := range rights {
			if principal.HasRight(r) {
				return c.Next()
			}
		}
		return ErrForbidden
	}
}

// RequireAudience restricts a route to tokens issued for one of the audiences.
func RequireAudience(audiences ...domain.Audience) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return ErrTokenNotFound
		}
		for _, aud := range audiences {
			if principal.Audience == aud {
				return c.Next()
			}
		}
		return ErrForbidden
	}
}
