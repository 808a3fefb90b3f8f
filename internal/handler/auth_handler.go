package handler

import (
	"go-khata-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp handles user registration
// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req service.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.authService.SignUp(&req)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if result.ConfirmationPending {
		return c.Status(201).JSON(fiber.Map{
			"message": "Registration successful, please confirm your email",
			"data":    result,
		})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Registration successful", "data": result})
}

// ConfirmSignUp activates a pending account from its confirmation token
// POST /api/v1/auth/confirm
func (h *AuthHandler) ConfirmSignUp(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	// Confirmation links carry the token as a query parameter, API clients
	// send it in the body; either works.
	_ = c.BodyParser(&req)
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Confirmation token is required"})
	}

	result, err := h.authService.ConfirmSignUp(req.Token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Email confirmed", "data": result})
}

// SignIn handles user authentication
// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req service.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	result, err := h.authService.SignIn(&req)
	if err != nil {
		// Auth failure reasons are surfaced verbatim to the caller
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// SignOut clears the remote session best-effort and the local session
// unconditionally
// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.authService.SignOut(userID); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to sign out"})
	}
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// Me returns the current authenticated identity
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"id":    c.Locals("user_id"),
		"email": c.Locals("user_email"),
		"name":  c.Locals("user_name"),
	})
}

// currentUserID reads the authenticated user's ID from the request context
// (set by the RequireAuth middleware).
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Locals("user_id")
	if raw == nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return uuid.Parse(raw.(string))
}
