package handler

import (
	"github.com/Yorkamc/GesCo/internal/auth/dto"
	"github.com/gofiber/fiber/v2"
)

const localsClaimsKey = "authClaims"

// RequireAuth verifies the bearer access token and stashes its claims for the
// downstream handler.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("missing bearer token"))
		}

		claims, err := h.tokens.VerifyAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("invalid or expired token"))
		}

		c.Locals(localsClaimsKey, claims)

		return c.Next()
	}
}
