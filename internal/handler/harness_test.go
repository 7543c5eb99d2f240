package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/friendzone-web/internal/handler"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/render"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/session"
)

type testEnv struct {
	app     *fiber.App
	store   session.Store
	views   *service.ViewRegistry
	notices service.NotificationService
	sid     string
	anonSID string
}

type envOption func(*service.ViewFactory)

func withAssistant(assistant service.AssistantService) envOption {
	return func(f *service.ViewFactory) { f.Assistant = assistant }
}

func withProvider(p provider.Provider) envOption {
	return func(f *service.ViewFactory) { f.Provider = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	store := session.NewMemoryStore(time.Hour, time.Now)
	notices := service.NewNotificationService(nil, "", nil, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	factory := service.ViewFactory{
		Provider:      provider.NewFixtureProvider(time.Now, logger),
		Validator:     validate,
		Notifications: notices,
		Logger:        logger,
	}
	for _, opt := range opts {
		opt(&factory)
	}
	views := service.NewViewRegistry(factory, logger)
	t.Cleanup(views.Close)

	renderer, err := render.New(time.Now)
	require.NoError(t, err)

	env := &testEnv{
		store:   store,
		views:   views,
		notices: notices,
		sid:     uuid.NewString(),
		anonSID: uuid.NewString(),
	}

	ctx := context.Background()
	require.NoError(t, store.SetToken(ctx, env.sid, "token-123"))
	require.NoError(t, store.SetUser(ctx, env.sid, models.User{ID: 7, Name: "Deniz Arslan"}))

	sessionMiddleware := middleware.Session(middleware.SessionConfig{Store: store, TTL: time.Hour, Logger: logger})
	bearer := middleware.BearerToken(time.Now)
	requireAuth := middleware.RequireAuth(middleware.AuthOptions{})

	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/health", handler.HealthCheck(testConfig(), nil))

	handler.NewSessionHandler(store, views, validate, logger).Register(app.Group("/session", sessionMiddleware, bearer))
	handler.NewNotificationHandler(notices, logger, 50*time.Millisecond).Register(app.Group("/notifications", sessionMiddleware))

	communities := app.Group("/communities", sessionMiddleware, bearer, requireAuth)
	handler.NewCommunityListHandler(views, renderer, notices, logger).Register(communities)
	detail := handler.NewCommunityDetailHandler(views, renderer, notices, validate, logger)
	detail.Register(communities)
	handler.NewChatHandler(views, renderer, logger).Register(communities)
	detail.RegisterAssistant(app.Group("/assistant", sessionMiddleware, bearer, requireAuth))

	env.app = app
	return env
}

// serve starts the app on a loopback listener for streaming tests.
func (e *testEnv) serve(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.ShutdownWithTimeout(2 * time.Second) })
	return ln.Addr().String()
}

type requestOption func(*http.Request)

func asJSON(body any) requestOption {
	return func(req *http.Request) {
		payload, _ := json.Marshal(body)
		req.Body = io.NopCloser(strings.NewReader(string(payload)))
		req.ContentLength = int64(len(payload))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	}
}

func acceptHTML() requestOption {
	return func(req *http.Request) {
		req.Header.Set(fiber.HeaderAccept, "text/html,application/xhtml+xml")
	}
}

func (e *testEnv) do(t *testing.T, method, target string, opts ...requestOption) *http.Response {
	t.Helper()
	return e.doAs(t, e.sid, method, target, opts...)
}

func (e *testEnv) doAs(t *testing.T, sid, method, target string, opts ...requestOption) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sid})
	for _, opt := range opts {
		opt(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func decode(t *testing.T, resp *http.Response, into any) envelope {
	t.Helper()
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	if into != nil && len(body.Data) > 0 {
		require.NoError(t, json.Unmarshal(body.Data, into))
	}
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}
