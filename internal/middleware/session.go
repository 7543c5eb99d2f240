package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/session"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "friendzone_sid"

const (
	localSessionID = "session_id"
	localAuth      = "auth"
)

// SessionConfig configures the session binding middleware.
type SessionConfig struct {
	Store  session.Store
	TTL    time.Duration
	Secure bool
	Logger zerolog.Logger
}

// Session binds the browser session to the request: it issues a session cookie on first
// visit and loads the stored token and user record.
func Session(cfg SessionConfig) fiber.Handler {
	logger := cfg.Logger.With().Str("component", "session_middleware").Logger()

	return func(c *fiber.Ctx) error {
		sid := strings.TrimSpace(c.Cookies(SessionCookie))
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			cookie := &fiber.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				Secure:   cfg.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			}
			if cfg.TTL > 0 {
				cookie.MaxAge = int(cfg.TTL / time.Second)
			}
			c.Cookie(cookie)
		}
		c.Locals(localSessionID, sid)

		ctx := c.UserContext()
		token, err := cfg.Store.GetToken(ctx, sid)
		if err != nil {
			logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to read session token")
			return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
		}
		user, err := cfg.Store.GetUser(ctx, sid)
		if err != nil {
			logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to read session user")
			return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
		}

		SetAuth(c, provider.Auth{Token: token, User: user})
		return c.Next()
	}
}

// SessionID returns the session id bound to the request.
func SessionID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if sid, ok := c.Locals(localSessionID).(string); ok {
		return sid
	}
	return ""
}

// AuthFromContext returns the credentials bound to the request.
func AuthFromContext(c *fiber.Ctx) provider.Auth {
	if auth, ok := c.Locals(localAuth).(provider.Auth); ok {
		return auth
	}
	return provider.Auth{}
}

// SetAuth replaces the credentials bound to the request.
func SetAuth(c *fiber.Ctx, auth provider.Auth) {
	c.Locals(localAuth, auth)
}
