package middleware

import (
	"slices"

	"bulk-webhook/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	RoleAdmin          = "admin"
	RoleWebhookManager = "webhook_manager"
	RoleViewer         = "viewer"
)

// RequireRole checks that the caller holds at least one of the given roles.
// admin always passes.
func RequireRole(skipAuth bool, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		for _, role := range claims.Roles {
			if role == RoleAdmin || slices.Contains(roles, role) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: Insufficient permissions",
		})
	}
}
