package ratelimit

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// ErrTooManyAttempts is returned when a client exceeds the login throttle.
var ErrTooManyAttempts = apperrors.NewTooManyRequests(apperrors.FormatErrorKey("login", "tooManyRequests"), "too many login attempts")

// PerIP throttles a route by client IP.
func PerIP(limiter Limiter, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		decision, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			logger.Warn("rate limit check failed; allowing request", zap.Error(err))
			return c.Next()
		}
		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return ErrTooManyAttempts
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		return c.Next()
	}
}
