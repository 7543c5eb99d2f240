package handler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/middleware"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/render"
	"github.com/noah-isme/friendzone-web/internal/service"
	"github.com/noah-isme/friendzone-web/internal/utils"
)

const (
	communitiesPath     = "/communities"
	defaultRenderBudget = 300 * time.Millisecond
)

// CommunityListHandler serves the community list page and its actions.
type CommunityListHandler struct {
	views    *service.ViewRegistry
	renderer *render.Renderer
	notices  service.NotificationService
	logger   zerolog.Logger
	budget   time.Duration
}

// NewCommunityListHandler constructs the list page handler.
func NewCommunityListHandler(views *service.ViewRegistry, renderer *render.Renderer, notices service.NotificationService, logger zerolog.Logger) *CommunityListHandler {
	return &CommunityListHandler{
		views:    views,
		renderer: renderer,
		notices:  notices,
		logger:   logger.With().Str("component", "community_list_handler").Logger(),
		budget:   defaultRenderBudget,
	}
}

// WithRenderBudget sets how long the page waits for region loads before it renders.
// Regions still loading afterwards are fetched by the page on their own.
func (h *CommunityListHandler) WithRenderBudget(budget time.Duration) *CommunityListHandler {
	if budget > 0 {
		h.budget = budget
	}
	return h
}

// Register binds the list routes. Static segments are registered before the id routes.
func (h *CommunityListHandler) Register(router fiber.Router) {
	router.Get("/", h.page)
	router.Get("/regions/:region", h.region)
	router.Get("/cards", h.cards)
	router.Post("/", h.create)
	router.Post("/:id<int>/join", h.join)
}

func (h *CommunityListHandler) page(c *fiber.Ctx) error {
	sid := middleware.SessionID(c)
	list := h.views.OpenList(sid, middleware.AuthFromContext(c))
	list.Start()

	ctx, cancel := context.WithTimeout(requestContext(c), h.budget)
	list.Settle(ctx)
	cancel()
	applyFilters(c, list)

	snapshot := list.Snapshot()
	snapshot.Notices = h.pending(sid)

	return sendHTML(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return h.renderer.ListPage(buf, snapshot)
	})
}

func (h *CommunityListHandler) region(c *fiber.Ctx) error {
	region := dto.Region(c.Params("region"))
	if !region.Valid() {
		return utils.SendError(c, fiber.StatusNotFound, "unknown region")
	}

	ctx := requestContext(c)
	list := h.currentList(c)
	waited, err := list.AwaitRegion(ctx, region)
	if !waited {
		err = list.LoadRegion(ctx, region)
	}
	if errors.Is(err, service.ErrViewClosed) {
		return sendServiceError(c, err)
	}

	snapshot := list.Snapshot()
	return sendHTML(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return h.renderer.Region(buf, region, snapshot)
	})
}

func (h *CommunityListHandler) cards(c *fiber.Ctx) error {
	list := h.loadedList(c)
	return utils.SendSuccess(c, "cards filtered", applyFilters(c, list))
}

func (h *CommunityListHandler) create(c *fiber.Ctx) error {
	var req dto.CreateCommunityRequest
	if c.Is("json") {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	} else {
		var form dto.CreateCommunityForm
		if err := c.BodyParser(&form); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		req = form.ToRequest()
	}

	list := h.currentList(c)
	result, err := list.CreateCommunity(requestContext(c), req)
	if wantsHTML(c) {
		return c.Redirect(communitiesPath, fiber.StatusSeeOther)
	}
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("create community failed")
		return utils.Fail(c, statusFor(err), friendzone.MessageOf(err, err.Error()), result)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "community created", result)
}

func (h *CommunityListHandler) join(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	list := h.loadedList(c)
	result, err := list.JoinCommunity(requestContext(c), id)
	if wantsHTML(c) {
		if err == nil && result.Redirect != "" {
			return c.Redirect(result.Redirect, fiber.StatusSeeOther)
		}
		return c.Redirect(communitiesPath, fiber.StatusSeeOther)
	}
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Int64("community_id", id).Msg("join failed")
		return sendServiceError(c, err)
	}

	message := "joined community"
	if result.Redirect != "" {
		message = "already a member"
	}
	return utils.SendSuccess(c, message, result)
}

// currentList returns the session's list view, opening an unloaded one when none exists.
func (h *CommunityListHandler) currentList(c *fiber.Ctx) *service.CommunityListController {
	sid := middleware.SessionID(c)
	if list, ok := h.views.List(sid); ok {
		return list
	}
	return h.views.OpenList(sid, middleware.AuthFromContext(c))
}

// loadedList returns the session's list view once its started loads have settled,
// opening one when none exists.
func (h *CommunityListHandler) loadedList(c *fiber.Ctx) *service.CommunityListController {
	list := h.currentList(c)
	list.Start()
	list.Settle(requestContext(c))
	return list
}

func (h *CommunityListHandler) pending(sid string) []models.Notice {
	if h.notices == nil {
		return nil
	}
	return h.notices.Pending(sid)
}

func applyFilters(c *fiber.Ctx, list *service.CommunityListController) dto.CardVisibility {
	list.FilterByCategory(strings.TrimSpace(c.Query("category")))
	return list.Search(strings.TrimSpace(c.Query("q")))
}
