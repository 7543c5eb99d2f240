package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/friendzone-web/internal/utils"
)

// AuthOptions configures the WithAuth guard.
type AuthOptions struct {
	// RequireUser also demands a stored user record, not just a token.
	RequireUser bool
}

// RequireAuth rejects requests whose session carries no bearer token.
func RequireAuth(opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := AuthFromContext(c)
		if auth.Token == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if opts.RequireUser && auth.User == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "session user missing", nil)
		}
		return c.Next()
	}
}

// WithAuth wraps a single handler with the RequireAuth guard.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	guard := RequireAuth(opts)
	return func(c *fiber.Ctx) error {
		auth := AuthFromContext(c)
		if auth.Token == "" || (opts.RequireUser && auth.User == nil) {
			return guard(c)
		}
		return handler(c)
	}
}
