package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
)

const routeLocal = "route_name"

// Route tags the request with a route name for metrics and abilities.
func Route(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(routeLocal, name)
		return c.Next()
	}
}

// RouteName returns the name set by Route.
func RouteName(c *fiber.Ctx) string {
	name, _ := c.Locals(routeLocal).(string)
	return name
}

// Metrics records request counts and latency by route name.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := RouteName(c)
		if route == "" {
			route = "unnamed"
		}

		m.RecordHTTPRequest(c.Method(), route, strconv.Itoa(statusOf(c, err)), time.Since(start).Seconds())
		return err
	}
}

// statusOf predicts the response status when the error handler has not
// written the response yet.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if httpErr, ok := errs.As(err); ok {
		return httpErr.Status
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
