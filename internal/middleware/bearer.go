package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

const bearerPrefix = "Bearer "

// BearerToken lets API clients pass the token in the Authorization header, which
// overrides the session's stored token for that request. The token is forwarded
// verbatim. When it happens to be a JWT, an expired token is rejected and its
// subject fills in a missing user id; opaque tokens are not inspected.
func BearerToken(now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		auth := AuthFromContext(c)

		if authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); authorization != "" {
			if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearerPrefix)) {
				return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
			}
			token := strings.TrimSpace(authorization[len(bearerPrefix):])
			if token == "" {
				return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
			}
			auth.Token = token
		}

		if auth.Token == "" {
			return c.Next()
		}

		claims, ok := inspectToken(auth.Token)
		if ok {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !exp.After(now()) {
				return utils.SendError(c, fiber.StatusUnauthorized, "session expired")
			}
			if auth.User == nil {
				if id, ok := extractUserIDFromClaims(claims); ok {
					auth.User = &models.User{ID: id}
				}
			}
		}

		SetAuth(c, auth)
		return c.Next()
	}
}

func inspectToken(token string) (jwt.MapClaims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func extractUserIDFromClaims(claims jwt.MapClaims) (int64, bool) {
	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key]; ok {
			if id, err := normalizeUserID(value); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}

func normalizeUserID(value interface{}) (int64, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}
