package middleware_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/session"
)

func sessionApp(store session.Store, now func() time.Time) (*fiber.App, *provider.Auth, *string) {
	var seen provider.Auth
	var sid string

	app := fiber.New()
	app.Use(middleware.Session(middleware.SessionConfig{Store: store, TTL: time.Hour, Logger: zerolog.Nop()}))
	app.Use(middleware.BearerToken(now))
	app.Get("/", func(c *fiber.Ctx) error {
		seen = middleware.AuthFromContext(c)
		sid = middleware.SessionID(c)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &seen, &sid
}

func TestSessionIssuesCookie(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, time.Now)
	app, seen, sid := sessionApp(store, nil)

	resp := perform(t, app, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, candidate := range resp.Cookies() {
		if candidate.Name == middleware.SessionCookie {
			cookie = candidate
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, *sid, cookie.Value)
	_, err := uuid.Parse(cookie.Value)
	require.NoError(t, err)
	require.Empty(t, seen.Token)
}

func TestSessionLoadsStoredCredentials(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, time.Now)
	existing := uuid.NewString()
	ctx := context.Background()
	require.NoError(t, store.SetToken(ctx, existing, "opaque-token"))
	require.NoError(t, store.SetUser(ctx, existing, models.User{ID: 9, Name: "Ece"}))

	app, seen, sid := sessionApp(store, nil)
	resp := perform(t, app, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: existing})
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Cookies())

	require.Equal(t, existing, *sid)
	require.Equal(t, "opaque-token", seen.Token)
	require.Equal(t, int64(9), seen.User.ID)
}

func TestBearerHeaderOverridesSession(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, time.Now)
	app, seen, _ := sessionApp(store, nil)

	resp := perform(t, app, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer header-token")
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "header-token", seen.Token)

	resp = perform(t, app, func(req *http.Request) {
		req.Header.Set("Authorization", "Basic abc")
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBearerRejectsExpiredJWT(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := session.NewMemoryStore(time.Hour, time.Now)
	app, seen, _ := sessionApp(store, func() time.Time { return now })

	expired := signToken(t, jwt.MapClaims{"sub": "42", "exp": now.Add(-time.Minute).Unix()})
	resp := perform(t, app, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+expired)
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	valid := signToken(t, jwt.MapClaims{"sub": "42", "exp": now.Add(time.Hour).Unix()})
	resp = perform(t, app, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+valid)
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, valid, seen.Token)
	require.NotNil(t, seen.User)
	require.Equal(t, int64(42), seen.User.ID)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return token
}
