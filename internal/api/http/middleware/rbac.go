package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/pkg/authorize"
	"github.com/healthplus/backend/pkg/reqctx"
)

// RequirePermission checks the caller's role against the casbin policy for
// resource/action. It must run after AuthRequired.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !reqctx.IsAuthenticated(c.Context()) {
			return fiber.ErrUnauthorized
		}

		if err := authorize.Can(c.Context(), auth, resource, action); err != nil {
			switch {
			case errors.Is(err, authorize.ErrForbidden):
				return fiber.ErrForbidden
			case errors.Is(err, authorize.ErrNoSubjectInContext):
				return fiber.ErrUnauthorized
			}
			return err
		}

		return c.Next()
	}
}
