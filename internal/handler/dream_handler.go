package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

// DreamHandler serves dream journal CRUD, the public feed, likes and comments.
type DreamHandler struct {
	dreams   service.DreamService
	comments service.CommentService
	logger   zerolog.Logger
}

// NewDreamHandler constructs a dream handler.
func NewDreamHandler(dreams service.DreamService, comments service.CommentService, logger zerolog.Logger) *DreamHandler {
	return &DreamHandler{
		dreams:   dreams,
		comments: comments,
		logger:   logger.With().Str("component", "dream_handler").Logger(),
	}
}

// Register binds dream routes.
func (h *DreamHandler) Register(router fiber.Router) {
	router.Get("/feed", h.feed)
	router.Get("/mine", h.mine)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/like", h.like)
	router.Delete("/:id/like", h.unlike)
	router.Get("/:id/comments", h.listComments)
	router.Post("/:id/comments", h.createComment)
}

func (h *DreamHandler) feed(c *fiber.Ctx) error {
	dreams, err := h.dreams.ListPublic(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "load feed")
	}
	return utils.SendSuccess(c, "dream feed", dreams)
}

func (h *DreamHandler) mine(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	dreams, err := h.dreams.ListByOwner(requestContext(c), userID, userID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list dreams")
	}
	return utils.OK(c, dreams, "dreams", fiber.Map{"limit": limit, "offset": offset, "count": len(dreams)})
}

func (h *DreamHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.DreamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	dream, err := h.dreams.Create(requestContext(c), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "create dream")
	}

	requestLogger(h.logger, c).Info().Str("dream_id", dream.ID).Bool("private", dream.IsPrivate).Msg("dream created")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "dream created", dream)
}

func (h *DreamHandler) get(c *fiber.Ctx) error {
	dream, err := h.dreams.Get(requestContext(c), c.Params("id"), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "load dream")
	}
	return utils.SendSuccess(c, "dream", dream)
}

func (h *DreamHandler) update(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.DreamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	dream, err := h.dreams.Update(requestContext(c), c.Params("id"), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "update dream")
	}
	return utils.SendSuccess(c, "dream updated", dream)
}

func (h *DreamHandler) delete(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	if err := h.dreams.SafeDelete(requestContext(c), c.Params("id"), userID); err != nil {
		return respondError(c, h.logger, err, "delete dream")
	}
	return utils.SendSuccess(c, "dream deleted", nil)
}

func (h *DreamHandler) like(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	result, err := h.dreams.Like(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return respondError(c, h.logger, err, "like dream")
	}
	return utils.SendSuccess(c, "dream liked", result)
}

func (h *DreamHandler) unlike(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	result, err := h.dreams.Unlike(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return respondError(c, h.logger, err, "unlike dream")
	}
	return utils.SendSuccess(c, "dream unliked", result)
}

func (h *DreamHandler) listComments(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	comments, err := h.comments.List(requestContext(c), c.Params("id"), userIDFromContext(c), limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list comments")
	}
	return utils.SendSuccess(c, "comments", comments)
}

func (h *DreamHandler) createComment(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.comments.Create(requestContext(c), c.Params("id"), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "create comment")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}
