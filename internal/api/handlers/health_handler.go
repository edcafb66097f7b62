package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	version string
	now     func() time.Time
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, now: time.Now}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   h.version,
	})
}
