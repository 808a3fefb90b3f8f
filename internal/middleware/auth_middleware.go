package middleware

import (
	"strings"

	"go-khata-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token, resolves the current user through
// the auth service (remote first, local session fallback) and sets the
// identity in the request context. Unauthenticated writes never reach a
// handler.
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		user, err := authService.CurrentUser(parts[1])
		if err != nil || user == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired session"})
		}

		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.Name)

		return c.Next()
	}
}
