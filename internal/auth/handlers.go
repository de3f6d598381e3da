package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes token checks. alive reports whether a session still
// exists; refresh is refused for expired sessions.
func RegisterRoutes(r fiber.Router, svc *Service, alive func(sessionID string) bool) {
	r.Get("/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		sessionID, err := svc.ValidateToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"session_id": sessionID})
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "bearer token required")
		}

		sessionID, err := svc.ValidateToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if alive != nil && !alive(sessionID) {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired")
		}

		resp, err := svc.IssueSessionToken(sessionID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})
}
