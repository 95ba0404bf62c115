package handlers

import (
	fiber "github.com/gofiber/fiber/v2"
)

// HealthCheck reports service liveness.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}
