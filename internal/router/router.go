package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/handler"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CommunityListHandler   *handler.CommunityListHandler
	CommunityDetailHandler *handler.CommunityDetailHandler
	ChatHandler            *handler.ChatHandler
	NotificationHandler    *handler.NotificationHandler
	SessionHandler         *handler.SessionHandler
	HealthChecks           map[string]handler.Pinger

	// SessionMiddleware binds the browser session; BearerMiddleware applies header tokens.
	SessionMiddleware fiber.Handler
	BearerMiddleware  fiber.Handler
	// WriteLimiter throttles state-changing requests.
	WriteLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	sessionMiddleware := orNext(deps.SessionMiddleware)
	bearerMiddleware := orNext(deps.BearerMiddleware)
	writeLimiter := writesOnly(orNext(deps.WriteLimiter))
	requireAuth := middleware.RequireAuth(middleware.AuthOptions{})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/communities", fiber.StatusFound)
	})

	if deps.SessionHandler != nil {
		sessionGroup := app.Group("/session", sessionMiddleware, bearerMiddleware, writeLimiter)
		deps.SessionHandler.Register(sessionGroup)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/notifications", sessionMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	communities := app.Group("/communities", sessionMiddleware, bearerMiddleware, requireAuth, writeLimiter)
	if deps.CommunityListHandler != nil {
		deps.CommunityListHandler.Register(communities)
	}
	if deps.CommunityDetailHandler != nil {
		deps.CommunityDetailHandler.Register(communities)

		assistant := app.Group("/assistant", sessionMiddleware, bearerMiddleware, requireAuth, writeLimiter)
		deps.CommunityDetailHandler.RegisterAssistant(assistant)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(communities)
	}
}

func orNext(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}

func writesOnly(limiter fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		return limiter(c)
	}
}
