package handler

import (
	"bytes"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/render"
	"github.com/noah-isme/friendzone-web/internal/service"
)

// Frame kinds sent over the transcript websocket.
const (
	FrameSnapshot = "snapshot"
	FrameAppended = "appended"
	FrameCleared  = "cleared"
)

const (
	localDetailView = "detail_view"
	localRequestCtx = "request_ctx"
)

// ChatHandler streams a detail view's transcript over a websocket and accepts
// composer messages on the same connection.
type ChatHandler struct {
	views    *service.ViewRegistry
	renderer *render.Renderer
	logger   zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(views *service.ViewRegistry, renderer *render.Renderer, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		views:    views,
		renderer: renderer,
		logger:   logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds the websocket route under the communities group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Get("/:id<int>/chat/ws", h.upgrade, websocket.New(h.handleConnection))
}

func (h *ChatHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id, err := parseID(c)
	if err != nil {
		return fiber.ErrBadRequest
	}
	detail, err := openDetail(c, h.views, id)
	if err != nil {
		return sendServiceError(c, err)
	}

	c.Locals(localDetailView, detail)
	c.Locals(localRequestCtx, requestContext(c))
	return c.Next()
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	detail, ok := conn.Locals(localDetailView).(*service.CommunityDetailController)
	if !ok {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "view missing"))
		return
	}
	ctx, ok := conn.Locals(localRequestCtx).(context.Context)
	if !ok {
		ctx = context.Background()
	}
	logger := h.logger.With().Int64("community_id", detail.RequestedID()).Logger()

	events, cancel := detail.Subscribe()
	defer cancel()

	if err := h.writeSnapshot(conn, detail.Transcript()); err != nil {
		logger.Debug().Err(err).Msg("failed to write transcript snapshot")
		return
	}

	logger.Info().Msg("chat websocket connected")
	defer logger.Info().Msg("chat websocket disconnected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var req dto.SendMessageRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if _, err := detail.SendMessage(ctx, req.Text); err != nil && !errors.Is(err, service.ErrEmptyMessage) {
				logger.Warn().Err(err).Msg("failed to send chat message")
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "view closed"))
				return
			}
			frame, err := h.frameFor(event)
			if err != nil {
				logger.Error().Err(err).Msg("failed to render chat frame")
				continue
			}
			if err := conn.WriteJSON(frame); err != nil {
				logger.Debug().Err(err).Msg("failed to write chat frame")
				return
			}
		case <-done:
			return
		}
	}
}

func (h *ChatHandler) writeSnapshot(conn *websocket.Conn, messages []models.ChatMessage) error {
	var buf bytes.Buffer
	if err := h.renderer.ChatMessages(&buf, messages); err != nil {
		return err
	}
	return conn.WriteJSON(dto.ChatFrame{Kind: FrameSnapshot, HTML: buf.String()})
}

func (h *ChatHandler) frameFor(event service.ChatEvent) (dto.ChatFrame, error) {
	switch event.Kind {
	case service.ChatCleared:
		return dto.ChatFrame{Kind: FrameCleared}, nil
	default:
		var buf bytes.Buffer
		if event.Message != nil {
			if err := h.renderer.ChatMessage(&buf, *event.Message); err != nil {
				return dto.ChatFrame{}, err
			}
		}
		return dto.ChatFrame{Kind: FrameAppended, Message: event.Message, HTML: buf.String()}, nil
	}
}
