package middleware

import (
	"onboard/database"
	"onboard/models"

	"github.com/gofiber/fiber/v2"
)

// ServiceTokenMiddleware authenticates external automation calls through
// the X-API-Key header.
func ServiceTokenMiddleware(c *fiber.Ctx) error {
	key := c.Get("X-API-Key")
	if key == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Missing X-API-Key header",
		})
	}

	token, err := models.ServiceTokenByValue(database.Database.Db, key)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid or inactive API key",
		})
	}

	c.Locals("serviceToken", token.Name)
	return c.Next()
}
