package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionMiddleware validates the bearer token (Authorization header or
// ?token=) and stores session_id in locals. When param is set, the route
// parameter of that name must name the same session.
func SessionMiddleware(secret, param string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := parseClaims(token, secretBytes)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if param != "" && c.Params(param) != claims.SessionID {
			return fiber.NewError(fiber.StatusForbidden, "token does not belong to this session")
		}

		c.Locals("session_id", claims.SessionID)
		return c.Next()
	}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
