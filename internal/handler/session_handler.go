package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/session"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

// SessionHandler writes the stored token and user record. It is the only writer of the session.
type SessionHandler struct {
	store     session.Store
	views     *service.ViewRegistry
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(store session.Store, views *service.ViewRegistry, validate *validator.Validate, logger zerolog.Logger) *SessionHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SessionHandler{
		store:     store,
		views:     views,
		validator: validate,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register binds the session routes.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Get("/", h.current)
	router.Post("/", h.login)
	router.Put("/user", middleware.WithAuth(h.updateUser, middleware.AuthOptions{}))
	router.Delete("/", h.logout)
}

func (h *SessionHandler) current(c *fiber.Ctx) error {
	auth := middleware.AuthFromContext(c)
	return utils.SendSuccess(c, "session", dto.SessionResponse{
		SessionID:     middleware.SessionID(c),
		Authenticated: auth.Token != "",
		User:          auth.User,
	})
}

func (h *SessionHandler) login(c *fiber.Ctx) error {
	var req dto.SessionLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sid := middleware.SessionID(c)
	ctx := requestContext(c)
	if err := h.store.SetToken(ctx, sid, req.Token); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to store session token")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
	}
	if err := h.store.SetUser(ctx, sid, req.User); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to store session user")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
	}

	// views opened with the old credentials are stale now
	h.views.CloseSession(sid)

	user := req.User
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session stored", dto.SessionResponse{
		SessionID:     sid,
		Authenticated: true,
		User:          &user,
	})
}

func (h *SessionHandler) updateUser(c *fiber.Ctx) error {
	var req dto.SessionUserUpdate
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	sid := middleware.SessionID(c)
	if err := h.store.SetUser(requestContext(c), sid, req.User); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update session user")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
	}

	user := req.User
	return utils.SendSuccess(c, "profile updated", dto.SessionResponse{
		SessionID:     sid,
		Authenticated: true,
		User:          &user,
	})
}

func (h *SessionHandler) logout(c *fiber.Ctx) error {
	sid := middleware.SessionID(c)
	if err := h.store.Clear(requestContext(c), sid); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to clear session")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
	}
	h.views.CloseSession(sid)
	return utils.SendSuccess(c, "session cleared", dto.SessionResponse{SessionID: sid})
}
