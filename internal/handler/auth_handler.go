package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

// AuthHandler exposes account registration and login.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds the public auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Get("/username/:username", h.checkUsername)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Register(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "register account")
	}

	requestLogger(h.logger, c).Info().Str("user_id", result.User.ID).Msg("account registered")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", result)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "login")
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) checkUsername(c *fiber.Ctx) error {
	result, err := h.service.CheckUsername(requestContext(c), c.Params("username"))
	if err != nil {
		return respondError(c, h.logger, err, "check username")
	}
	return utils.SendSuccess(c, "username availability", result)
}
