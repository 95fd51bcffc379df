package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

const (
	defaultFollowListLimit = 20
	maxFollowListLimit     = 100
)

// FollowHandler exposes the social graph. The :id segment takes an id or a username.
type FollowHandler struct {
	service service.SocialGraphService
	users   service.UserService
	logger  zerolog.Logger
}

// NewFollowHandler constructs a follow handler.
func NewFollowHandler(service service.SocialGraphService, users service.UserService, logger zerolog.Logger) *FollowHandler {
	return &FollowHandler{
		service: service,
		users:   users,
		logger:  logger.With().Str("component", "follow_handler").Logger(),
	}
}

// Register binds follow routes under the users group.
func (h *FollowHandler) Register(router fiber.Router) {
	router.Post("/:id/follow", h.follow)
	router.Delete("/:id/follow", h.unfollow)
	router.Get("/:id/follow", h.status)
	router.Get("/:id/followers", h.followers)
	router.Get("/:id/following", h.following)
}

func (h *FollowHandler) follow(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == "" {
		return unauthorized(c)
	}
	targetID, err := h.users.ResolveID(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "resolve user")
	}

	if err := h.service.Follow(requestContext(c), actorID, targetID); err != nil {
		return respondError(c, h.logger, err, "follow user")
	}
	return utils.SendSuccess(c, "following", dto.FollowStatusResponse{UserID: targetID, IsFollowing: true})
}

func (h *FollowHandler) unfollow(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == "" {
		return unauthorized(c)
	}
	targetID, err := h.users.ResolveID(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "resolve user")
	}

	if err := h.service.Unfollow(requestContext(c), actorID, targetID); err != nil {
		return respondError(c, h.logger, err, "unfollow user")
	}
	return utils.SendSuccess(c, "unfollowed", dto.FollowStatusResponse{UserID: targetID, IsFollowing: false})
}

func (h *FollowHandler) status(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == "" {
		return unauthorized(c)
	}
	targetID, err := h.users.ResolveID(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "resolve user")
	}

	following, err := h.service.IsFollowing(requestContext(c), actorID, targetID)
	if err != nil {
		return respondError(c, h.logger, err, "check follow status")
	}
	return utils.SendSuccess(c, "follow status", dto.FollowStatusResponse{UserID: targetID, IsFollowing: following})
}

func (h *FollowHandler) followers(c *fiber.Ctx) error {
	limit, err := listLimit(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	userID, err := h.users.ResolveID(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "resolve user")
	}

	users, err := h.service.Followers(requestContext(c), userID, limit)
	if err != nil {
		return respondError(c, h.logger, err, "list followers")
	}
	return utils.SendSuccess(c, "followers", users)
}

func (h *FollowHandler) following(c *fiber.Ctx) error {
	limit, err := listLimit(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	userID, err := h.users.ResolveID(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "resolve user")
	}

	users, err := h.service.Following(requestContext(c), userID, limit)
	if err != nil {
		return respondError(c, h.logger, err, "list following")
	}
	return utils.SendSuccess(c, "following", users)
}

func listLimit(c *fiber.Ctx) (int, error) {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		return defaultFollowListLimit, nil
	}
	if limit > maxFollowListLimit {
		limit = maxFollowListLimit
	}
	return limit, nil
}
