package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	pasetotoken "github.com/healthplus/backend/pkg/paseto"
	"github.com/healthplus/backend/pkg/reqctx"
	"github.com/healthplus/backend/pkg/session"
)

// AuthRequired validates a Bearer PASETO access token and checks its session.
// On success, stores *pasetotoken.Claims in c.Locals(pasetotoken.CtxKeyClaims)
// and on the request context.
func AuthRequired(mgr *pasetotoken.Manager, sessions *session.Store) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		// Refresh tokens are rejected here.
		claims, err := mgr.VerifyAs(strings.TrimSpace(parts[1]), pasetotoken.TokenTypeAccess)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// A logged-out session invalidates its tokens immediately
		if err := sessions.Validate(c.Context(), *claims.SessionID, claims.UserID); err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
