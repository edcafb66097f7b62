package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/errs"
)

// RateLimit allows MaxAttempts requests per client IP in every window of
// DecayMinutes.
func RateLimit(cfg config.RateLimit) fiber.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	decay := cfg.DecayMinutes
	if decay <= 0 {
		decay = 1
	}

	return limiter.New(limiter.Config{
		Max:        cfg.MaxAttempts,
		Expiration: time.Duration(decay) * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return errs.New(fiber.StatusTooManyRequests, "Too Many Attempts.")
		},
	})
}
