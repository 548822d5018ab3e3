package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// RequireCaller ensures an authenticated principal is present. Role decisions
// are left to the access package.
func RequireCaller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// CallerFromContext returns the authenticated caller, or an empty caller when
// the request is anonymous.
func CallerFromContext(c *fiber.Ctx) domain.Caller {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.Caller{}
	}
	return principal.Caller()
}
