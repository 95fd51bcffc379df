package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/service"
)

func TestStatusFromError(t *testing.T) {
	validationErr := validator.New().Struct(struct {
		Name string `validate:"required"`
	}{})

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validationErr, fiber.StatusBadRequest},
		{"invalid operation wrapped", fmt.Errorf("%w: self follow", service.ErrInvalidOperation), fiber.StatusBadRequest},
		{"bad username", service.ErrInvalidUsername, fiber.StatusBadRequest},
		{"bad upload type", service.ErrUploadTypeNotAllowed, fiber.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, fiber.StatusForbidden},
		{"not found", service.ErrNotFound, fiber.StatusNotFound},
		{"username taken", service.ErrUsernameTaken, fiber.StatusConflict},
		{"email taken", service.ErrEmailTaken, fiber.StatusConflict},
		{"too large", service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
		{"quota", service.ErrAIQuotaExceeded, fiber.StatusTooManyRequests},
		{"chat unavailable", service.ErrChatUnavailable, fiber.StatusBadGateway},
		{"unknown", errors.New("disk on fire"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, statusFromError(tc.err))
		})
	}
}
