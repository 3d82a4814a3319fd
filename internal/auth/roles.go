package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

// RequireRoleLevel ensures the caller's role level is at least min.
func RequireRoleLevel(min int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.RoleLevel() < min {
			return apperrors.NewForbidden(fmt.Sprintf("role level %d or higher required", min))
		}
		return c.Next()
	}
}
