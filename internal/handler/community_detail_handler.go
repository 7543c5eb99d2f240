package handler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/render"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

// CommunityDetailHandler serves the community detail page, its chat and the assistant.
type CommunityDetailHandler struct {
	views     *service.ViewRegistry
	renderer  *render.Renderer
	notices   service.NotificationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCommunityDetailHandler constructs the detail page handler.
func NewCommunityDetailHandler(views *service.ViewRegistry, renderer *render.Renderer, notices service.NotificationService, validate *validator.Validate, logger zerolog.Logger) *CommunityDetailHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &CommunityDetailHandler{
		views:     views,
		renderer:  renderer,
		notices:   notices,
		validator: validate,
		logger:    logger.With().Str("component", "community_detail_handler").Logger(),
	}
}

// Register binds the detail routes under the communities group.
func (h *CommunityDetailHandler) Register(router fiber.Router) {
	router.Get("/:id<int>", h.page)
	router.Get("/:id<int>/messages", h.transcript)
	router.Post("/:id<int>/messages", h.sendMessage)
	router.Delete("/:id<int>/messages", h.clearChat)
	router.Post("/:id<int>/leave", h.leave)
	router.Post("/:id<int>/assistant", h.suggestion)
}

// RegisterAssistant binds the free-text assistant chat route.
func (h *CommunityDetailHandler) RegisterAssistant(router fiber.Router) {
	router.Post("/chat", h.assistantChat)
}

func (h *CommunityDetailHandler) page(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sid := middleware.SessionID(c)
	detail := h.views.OpenDetail(sid, middleware.AuthFromContext(c))
	if err := detail.Load(requestContext(c), id); err != nil {
		return sendServiceError(c, err)
	}

	snapshot := detail.Snapshot()
	if h.notices != nil {
		snapshot.Notices = h.notices.Pending(sid)
	}

	return sendHTML(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return h.renderer.DetailPage(buf, snapshot)
	})
}

func (h *CommunityDetailHandler) transcript(c *fiber.Ctx) error {
	detail, err := h.detail(c)
	if err != nil {
		return sendServiceError(c, err)
	}

	messages := detail.Transcript()
	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
		return sendHTML(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
			return h.renderer.ChatMessages(buf, messages)
		})
	}
	return utils.SendSuccess(c, "chat transcript", messages)
}

func (h *CommunityDetailHandler) sendMessage(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	detail, err := h.detail(c)
	if err != nil {
		return sendServiceError(c, err)
	}

	msg, err := detail.SendMessage(requestContext(c), req.Text)
	if wantsHTML(c) {
		return c.Redirect(service.CommunityDetailPath(detail.RequestedID()), fiber.StatusSeeOther)
	}
	if err != nil {
		return sendServiceError(c, err)
	}

	var buf bytes.Buffer
	if err := h.renderer.ChatMessage(&buf, msg); err != nil {
		return err
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", dto.ChatMessageResponse{Message: msg, HTML: buf.String()})
}

func (h *CommunityDetailHandler) clearChat(c *fiber.Ctx) error {
	detail, err := h.detail(c)
	if err != nil {
		return sendServiceError(c, err)
	}

	if err := detail.ClearChat(confirmation(c)); err != nil {
		if errors.Is(err, service.ErrNotConfirmed) {
			return utils.Fail(c, statusFor(err), "confirmation required", fiber.Map{"prompt": service.PromptClearChat})
		}
		return sendServiceError(c, err)
	}
	return utils.SendSuccess(c, "chat cleared", nil)
}

func (h *CommunityDetailHandler) leave(c *fiber.Ctx) error {
	detail, err := h.detail(c)
	if err != nil {
		return sendServiceError(c, err)
	}

	nav, err := detail.LeaveCommunity(requestContext(c), confirmation(c))
	if wantsHTML(c) {
		if err == nil {
			return c.Redirect(nav.To, fiber.StatusSeeOther)
		}
		return c.Redirect(service.CommunityDetailPath(detail.RequestedID()), fiber.StatusSeeOther)
	}
	if err != nil {
		if errors.Is(err, service.ErrNotConfirmed) {
			return utils.Fail(c, statusFor(err), "confirmation required", fiber.Map{"prompt": service.PromptLeaveCommunity})
		}
		requestLogger(h.logger, c).Warn().Err(err).Int64("community_id", detail.RequestedID()).Msg("leave failed")
		return sendServiceError(c, err)
	}
	return utils.SendSuccess(c, "left community", nav)
}

func (h *CommunityDetailHandler) suggestion(c *fiber.Ctx) error {
	var form dto.SuggestionForm
	if err := c.BodyParser(&form); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(form); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.detail(c)
	if err != nil {
		return sendServiceError(c, err)
	}

	suggestion, err := detail.RequestSuggestion(requestContext(c), models.SuggestionType(form.Type), form.Prompt)
	if err != nil {
		return sendServiceError(c, err)
	}

	var buf bytes.Buffer
	if err := h.renderer.Suggestion(&buf, suggestion); err != nil {
		return err
	}
	return utils.SendSuccess(c, "suggestion ready", dto.SuggestionPanelResponse{Suggestion: suggestion, Panel: buf.String()})
}

func (h *CommunityDetailHandler) assistantChat(c *fiber.Ctx) error {
	var form dto.AssistantChatForm
	if err := c.BodyParser(&form); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(form); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := requestContext(c)
	sid := middleware.SessionID(c)

	var (
		reply dto.AssistantChatResponse
		err   error
	)
	if detail, ok := h.views.Detail(sid, form.CommunityID); ok && form.CommunityID > 0 {
		reply, err = detail.AssistantChat(ctx, form.Message)
	} else {
		assistant := h.views.Factory().Assistant
		if assistant == nil {
			return sendServiceError(c, service.ErrAssistantUnavailable)
		}
		reply, err = assistant.Chat(ctx, middleware.AuthFromContext(c), form.Message, nil)
	}
	if err != nil {
		return sendServiceError(c, err)
	}
	return utils.SendSuccess(c, "assistant reply", reply)
}

// detail returns the session's detail view for the requested id, opening and loading
// one when the session has none for that community.
func (h *CommunityDetailHandler) detail(c *fiber.Ctx) (*service.CommunityDetailController, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidCommunity, err)
	}
	return openDetail(c, h.views, id)
}

func openDetail(c *fiber.Ctx, views *service.ViewRegistry, id int64) (*service.CommunityDetailController, error) {
	sid := middleware.SessionID(c)
	if detail, ok := views.Detail(sid, id); ok {
		return detail, nil
	}
	detail := views.OpenDetail(sid, middleware.AuthFromContext(c))
	if err := detail.Load(requestContext(c), id); err != nil {
		return nil, err
	}
	return detail, nil
}

func confirmation(c *fiber.Ctx) service.Confirmer {
	if c.QueryBool("confirm") {
		return service.Answer(true)
	}
	var req dto.ConfirmRequest
	if len(c.Body()) > 0 && c.BodyParser(&req) == nil && req.Confirm {
		return service.Answer(true)
	}
	return service.Answer(strings.EqualFold(c.Get("X-Confirm"), "true"))
}
