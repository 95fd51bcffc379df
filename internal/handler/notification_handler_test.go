package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/handler"
	"github.com/noah-isme/bring-api/internal/service"
)

type stubNotificationService struct {
	err        error
	markedID   uint
	markedUser string
	allUser    string
}

func (s *stubNotificationService) Publish(context.Context, dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, s.err
}

func (s *stubNotificationService) List(_ context.Context, userID string, _, _ int) ([]dto.NotificationResponse, error) {
	return []dto.NotificationResponse{{ID: 1, UserID: userID, Type: "follow", Message: "hello"}}, s.err
}

func (s *stubNotificationService) MarkRead(_ context.Context, id uint, userID string) (dto.NotificationResponse, error) {
	s.markedID = id
	s.markedUser = userID
	if s.err != nil {
		return dto.NotificationResponse{}, s.err
	}
	return dto.NotificationResponse{ID: id, UserID: userID, Read: true}, nil
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, userID string) (dto.MarkAllReadResponse, error) {
	s.allUser = userID
	return dto.MarkAllReadResponse{Updated: 4}, s.err
}

func (s *stubNotificationService) UnreadCount(context.Context, string) (int64, error) {
	return 3, s.err
}

func (s *stubNotificationService) Subscribe(string) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse)
	close(ch)
	return ch, func() {}
}

func (s *stubNotificationService) Start(context.Context) {}

func newNotificationApp(svc service.NotificationService, userID string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/notifications", withUser(userID, "user"))
	handler.NewNotificationHandler(svc, nopLogger(), time.Second).Register(group)
	return app
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	svc := &stubNotificationService{}
	app := newNotificationApp(svc, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "u-1", svc.allUser)

	var body struct {
		Data dto.MarkAllReadResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.EqualValues(t, 4, body.Data.Updated)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	svc := &stubNotificationService{}
	app := newNotificationApp(svc, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/12/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.EqualValues(t, 12, svc.markedID)
	require.Equal(t, "u-1", svc.markedUser)
}

func TestNotificationHandlerMarkReadErrors(t *testing.T) {
	app := newNotificationApp(&stubNotificationService{}, "u-1")
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/abc/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	app = newNotificationApp(&stubNotificationService{err: service.ErrNotFound}, "u-1")
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/99/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	app := newNotificationApp(&stubNotificationService{}, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]int64 `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.EqualValues(t, 3, body.Data["unread"])
}

func TestNotificationHandlerRequiresUser(t *testing.T) {
	app := newNotificationApp(&stubNotificationService{}, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
