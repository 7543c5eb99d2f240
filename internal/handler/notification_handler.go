package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

// NotificationHandler streams a session's notices over SSE.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.pending)
	router.Get("/stream", h.stream)
}

func (h *NotificationHandler) pending(c *fiber.Ctx) error {
	sid := middleware.SessionID(c)
	if sid == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "session missing")
	}
	notices := h.service.Pending(sid)
	return utils.OK(c, notices, "notifications", dto.NoticeMeta{Count: len(notices)})
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	sid := middleware.SessionID(c)
	if sid == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "session missing")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	stream, cleanup := h.service.Subscribe(sid)
	// notices queued before the stream opened are delivered first
	backlog := h.service.Pending(sid)
	logger := requestLogger(h.logger, c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cleanup()

		for _, notice := range backlog {
			if err := writeNotificationEvent(w, notice); err != nil {
				return
			}
		}
		if err := writeKeepAlive(w); err != nil {
			return
		}

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		for {
			select {
			case notice, ok := <-stream:
				if !ok {
					return
				}
				if err := writeNotificationEvent(w, notice); err != nil {
					logger.Debug().Err(err).Msg("failed to write notification event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					logger.Debug().Err(err).Msg("notification stream closed")
					return
				}
			}
		}
	})

	return nil
}

func writeNotificationEvent(w *bufio.Writer, notice models.Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "id: %s\nevent: notification\n", notice.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
