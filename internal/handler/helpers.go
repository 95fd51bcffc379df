package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/middleware"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func userIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// statusFromError maps service failures onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case isValidationError(err),
		errors.Is(err, service.ErrInvalidOperation),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrUploadTypeNotAllowed):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUploadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrAIQuotaExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, service.ErrChatUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal failures are logged and
// answered with a generic message so storage details never leak.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	status := statusFromError(err)
	if status == fiber.StatusInternalServerError {
		requestLogger(logger, c).Error().Err(err).Str("action", action).Msg("request failed")
		return utils.SendError(c, status, "failed to "+action)
	}
	return utils.SendError(c, status, err.Error())
}

func unauthorized(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
}
