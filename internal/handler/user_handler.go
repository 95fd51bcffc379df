package handler

import (
	"context"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

// UserHandler serves profile lookup, search and self-service profile edits.
type UserHandler struct {
	users  service.UserService
	dreams service.DreamService
	logger zerolog.Logger
}

// NewUserHandler constructs a user handler.
func NewUserHandler(users service.UserService, dreams service.DreamService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		dreams: dreams,
		logger: logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register binds the user routes. Static segments come before /:id.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/search", h.search)
	router.Get("/me", h.me)
	router.Put("/me", h.updateProfile)
	router.Put("/me/extended", h.updateExtendedProfile)
	router.Post("/me/avatar", h.uploadAvatar)
	router.Post("/me/cover", h.uploadCover)
	router.Get("/:id", h.get)
	router.Get("/:id/dreams", h.dreamsOf)
}

func (h *UserHandler) search(c *fiber.Ctx) error {
	result, err := h.users.Search(requestContext(c), c.Query("q"))
	if err != nil {
		return respondError(c, h.logger, err, "search users")
	}
	return utils.SendSuccess(c, "users", result)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	profile, err := h.users.GetProfile(requestContext(c), userID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "load profile")
	}
	return utils.SendSuccess(c, "profile", profile)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	profile, err := h.users.GetProfile(requestContext(c), c.Params("id"), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "load profile")
	}
	return utils.SendSuccess(c, "profile", profile)
}

func (h *UserHandler) updateProfile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.users.UpdateProfile(requestContext(c), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "update profile")
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *UserHandler) updateExtendedProfile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.ExtendedProfileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.users.UpdateExtendedProfile(requestContext(c), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "update extended profile")
	}
	return utils.SendSuccess(c, "extended profile updated", profile)
}

func (h *UserHandler) uploadAvatar(c *fiber.Ctx) error {
	return h.uploadImage(c, "avatar", h.users.UploadAvatar)
}

func (h *UserHandler) uploadCover(c *fiber.Ctx) error {
	return h.uploadImage(c, "cover", h.users.UploadCover)
}

type profileImageUpload func(ctx context.Context, userID string, file *multipart.FileHeader) (dto.UserResponse, error)

func (h *UserHandler) uploadImage(c *fiber.Ctx, kind string, upload profileImageUpload) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	profile, err := upload(requestContext(c), userID, file)
	if err != nil {
		return respondError(c, h.logger, err, "upload "+kind)
	}

	requestLogger(h.logger, c).Info().Str("user_id", userID).Str("kind", kind).Msg("profile image updated")
	return utils.SendSuccess(c, kind+" updated", profile)
}

func (h *UserHandler) dreamsOf(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	ownerID, err := h.users.ResolveID(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "resolve user")
	}

	dreams, err := h.dreams.ListByOwner(requestContext(c), ownerID, userIDFromContext(c), limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list dreams")
	}
	return utils.OK(c, dreams, "dreams", fiber.Map{"limit": limit, "offset": offset, "count": len(dreams)})
}
