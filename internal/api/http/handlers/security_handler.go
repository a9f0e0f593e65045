package handlers

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// SecurityService is the subset of the security service the handlers call.
type SecurityService interface {
	Login(ctx context.Context, req domain.RequestContext, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, req domain.RequestContext, profile domain.SignUpProfile) (*domain.Session, error)
	Refresh(ctx context.Context, principal *auth.Principal) (*domain.Session, error)
}

// SecurityHandler exposes login, signup and token refresh.
type SecurityHandler struct {
	security SecurityService
}

// NewSecurityHandler constructs handler.
func NewSecurityHandler(security SecurityService) *SecurityHandler {
	return &SecurityHandler{security: security}
}

// Login handles POST /auth/login.
func (h *SecurityHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	session, err := h.security.Login(c.UserContext(), auth.RequestContextFromFiber(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{Token: session.Token}})
}

// SignUp handles POST /auth/signup.
func (h *SecurityHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	session, err := h.security.SignUp(c.UserContext(), auth.RequestContextFromFiber(c), req.ToProfile())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionResponse{Token: session.Token}})
}

// Refresh handles POST /auth/token/refresh for an authenticated caller.
func (h *SecurityHandler) Refresh(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return auth.ErrTokenNotFound
	}
	session, err := h.security.Refresh(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{Token: session.Token}})
}

func validationError(err error) error {
	details := map[string]any{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
	}
	return apperrors.NewValidationError("invalid payload", details)
}
