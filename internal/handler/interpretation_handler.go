package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

// InterpretationHandler requests and lists AI dream interpretations.
type InterpretationHandler struct {
	service service.AICommentService
	limiter fiber.Handler
	logger  zerolog.Logger
}

// NewInterpretationHandler constructs the handler. limiter guards the generation route and may be nil.
func NewInterpretationHandler(service service.AICommentService, limiter fiber.Handler, logger zerolog.Logger) *InterpretationHandler {
	return &InterpretationHandler{
		service: service,
		limiter: limiter,
		logger:  logger.With().Str("component", "interpretation_handler").Logger(),
	}
}

// Register binds interpretation routes under the dreams group.
func (h *InterpretationHandler) Register(router fiber.Router) {
	router.Get("/:id/interpretations", h.list)
	if h.limiter != nil {
		router.Post("/:id/interpretations", h.limiter, h.interpret)
		return
	}
	router.Post("/:id/interpretations", h.interpret)
}

func (h *InterpretationHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	result, err := h.service.List(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return respondError(c, h.logger, err, "list interpretations")
	}
	return utils.SendSuccess(c, "interpretations", result)
}

// interpret answers 200 with the fallback text when generation fails; the
// persisted flag tells the client the result was not stored.
func (h *InterpretationHandler) interpret(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.InterpretationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if payload.Mode == "" {
		payload.Mode = c.Query("mode")
	}

	result, err := h.service.Interpret(requestContext(c), c.Params("id"), userID, payload.Mode)
	if err != nil {
		return respondError(c, h.logger, err, "interpret dream")
	}

	if !result.Persisted {
		requestLogger(h.logger, c).Warn().Str("dream_id", result.DreamID).Str("mode", result.Mode).Msg("interpretation fell back")
		return utils.SendSuccess(c, "interpretation unavailable", result)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interpretation created", result)
}
