package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		ctx := base.With()
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			ctx = ctx.Str("correlation_id", correlation)
		}
		if sid := middleware.SessionID(c); sid != "" {
			ctx = ctx.Str("session_id", sid)
		}
		logger = ctx.Logger()
	}
	return &logger
}

func parseID(c *fiber.Ctx) (int64, error) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid community id %q", raw)
	}
	return id, nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// wantsHTML reports whether the caller is a plain browser form rather than a script.
func wantsHTML(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}

func sendHTML(c *fiber.Ctx, status int, render func(buf *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *friendzone.APIError
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidCommunity),
		errors.Is(err, service.ErrInvalidSuggestionType),
		isValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotConfirmed):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, service.ErrCommunityNotLoaded), errors.Is(err, provider.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrJoinInFlight),
		errors.Is(err, provider.ErrCommunityFull),
		errors.Is(err, provider.ErrNotMember):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrViewClosed):
		return fiber.StatusGone
	case errors.Is(err, service.ErrAssistantUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, friendzone.ErrUnauthenticated), errors.Is(err, provider.ErrMissingUser):
		return fiber.StatusUnauthorized
	case errors.As(err, &apiErr):
		if apiErr.Status >= fiber.StatusBadRequest && apiErr.Status < fiber.StatusInternalServerError {
			return apiErr.Status
		}
		return fiber.StatusBadGateway
	case errors.Is(err, friendzone.ErrTransport), errors.Is(err, friendzone.ErrMalformed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func sendServiceError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := friendzone.MessageOf(err, err.Error())
	if status == fiber.StatusInternalServerError {
		message = "internal error"
	}
	return utils.SendError(c, status, message)
}
