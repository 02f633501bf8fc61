package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/apperr"
)

const principalKey = "principal"

// Principal is the authenticated caller extracted from an access token.
type Principal struct {
	UserID string
	Role   string
}

// TokenVerifier validates a bearer token and returns its principal.
type TokenVerifier func(token string) (Principal, error)

// JWTAuth rejects requests without a valid bearer access token and stores the
// principal in the request locals.
func JWTAuth(verify TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return apperr.New(apperr.KindUnauthorized, "Invalid Authentication.")
		}
		principal, err := verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return err
		}

		c.Locals(principalKey, principal)
		c.Locals("user_id", principal.UserID)
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by JWTAuth.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// RequireRole lets through only principals holding role. It must run after
// JWTAuth.
func RequireRole(role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return apperr.New(apperr.KindUnauthorized, "Invalid Authentication.")
		}
		if p.Role != role {
			return apperr.New(apperr.KindForbidden, message)
		}
		return c.Next()
	}
}
