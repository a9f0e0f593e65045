package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
)

// UsersHandler exposes the caller's own account.
type UsersHandler struct{}

// NewUsersHandler constructs handler.
func NewUsersHandler() *UsersHandler {
	return &UsersHandler{}
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return auth.ErrTokenNotFound
	}

	rights := make([]string, 0, len(principal.Rights))
	for _, r := range principal.Rights {
		rights = append(rights, string(r))
	}
	user := principal.User
	return c.JSON(fiber.Map{"data": dto.ProfileResponse{
		ID:          user.ID,
		FullName:    user.FullName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Nationality: user.Nationality,
		Role:        user.Role,
		Status:      string(user.Status),
		Rights:      rights,
		TokenAud:    string(principal.Audience),
		LastLogin:   user.LastLogin,
	}})
}
