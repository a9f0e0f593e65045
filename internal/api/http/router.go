package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Security        *handlers.SecurityHandler
	Users           *handlers.UsersHandler
	TokenMiddleware *auth.TokenMiddleware
	// LoginLimiter guards the credential endpoints. Nil disables throttling.
	LoginLimiter fiber.Handler
	Metrics      *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", throttled(cfg.LoginLimiter, cfg.Security.Login)...)
	authGroup.Post("/signup", throttled(cfg.LoginLimiter, cfg.Security.SignUp)...)
	authGroup.Post("/token/refresh", cfg.TokenMiddleware.Handle, cfg.Security.Refresh)
	authGroup.Get("/ping", cfg.TokenMiddleware.Handle, auth.RequireRight(auth.RightPing), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	users := app.Group("/users", cfg.TokenMiddleware.Handle)
	users.Get("/me", auth.RequireRight(auth.RightViewProfile), cfg.Users.Me)

	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.TokenMiddleware.Handle, auth.RequireRight(auth.RightViewAllData), func(c *fiber.Ctx) error {
			return c.JSON(cfg.Metrics.Snapshot())
		})
	}
}

func throttled(limiter fiber.Handler, handler fiber.Handler) []fiber.Handler {
	if limiter == nil {
		return []fiber.Handler{handler}
	}
	return []fiber.Handler{limiter, handler}
}
