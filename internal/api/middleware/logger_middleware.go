package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request.
func RequestLogger(log logrus.FieldLogger) fiber.Handler {
	log = log.WithField("component", "http")

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   statusOf(c, err),
			"ip":       c.IP(),
			"duration": time.Since(start).String(),
		})
		if route := RouteName(c); route != "" {
			entry = entry.WithField("route", route)
		}
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("Request handled")
		return err
	}
}
