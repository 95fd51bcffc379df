package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

// AdminHandler exposes maintenance operations restricted to admins.
type AdminHandler struct {
	graph  service.SocialGraphService
	dreams service.DreamService
	logger zerolog.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(graph service.SocialGraphService, dreams service.DreamService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		graph:  graph,
		dreams: dreams,
		logger: logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register binds admin routes. The caller guards the group with the admin role.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Post("/follows/reconcile", h.reconcileFollows)
	router.Delete("/dreams/:id", h.deleteDream)
}

func (h *AdminHandler) reconcileFollows(c *fiber.Ctx) error {
	updated, err := h.graph.Reconcile(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "reconcile follow counters")
	}

	requestLogger(h.logger, c).Info().Int64("updated_users", updated).Msg("follow counters reconciled")
	return utils.SendSuccess(c, "follow counters reconciled", dto.ReconcileResponse{UpdatedUsers: updated})
}

func (h *AdminHandler) deleteDream(c *fiber.Ctx) error {
	dreamID := c.Params("id")
	if err := h.dreams.SafeDelete(requestContext(c), dreamID, ""); err != nil {
		return respondError(c, h.logger, err, "delete dream")
	}

	requestLogger(h.logger, c).Info().Str("dream_id", dreamID).Str("admin_id", userIDFromContext(c)).Msg("dream removed by admin")
	return utils.SendSuccess(c, "dream deleted", nil)
}
