package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/handler"
	"github.com/noah-isme/bring-api/internal/middleware"
	"github.com/noah-isme/bring-api/internal/service"
)

type stubUserService struct {
	err        error
	lastLookup string
	lastViewer string
	uploadKind string
	handles    map[string]string
}

func (s *stubUserService) ResolveID(_ context.Context, idOrUsername string) (string, error) {
	if s.handles == nil {
		return idOrUsername, nil
	}
	id, ok := s.handles[idOrUsername]
	if !ok {
		return "", service.ErrNotFound
	}
	return id, nil
}

func (s *stubUserService) GetProfile(_ context.Context, idOrUsername, viewerID string) (dto.UserResponse, error) {
	s.lastLookup = idOrUsername
	s.lastViewer = viewerID
	return dto.UserResponse{ID: idOrUsername}, s.err
}

func (s *stubUserService) Search(_ context.Context, query string) ([]dto.UserSummary, error) {
	return []dto.UserSummary{{ID: "u-2", Username: query}}, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, userID string, payload dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	return dto.UserResponse{ID: userID, DisplayName: payload.DisplayName}, s.err
}

func (s *stubUserService) UpdateExtendedProfile(_ context.Context, userID string, _ dto.ExtendedProfileRequest) (dto.UserResponse, error) {
	return dto.UserResponse{ID: userID, ProfileCompleted: true}, s.err
}

func (s *stubUserService) UploadAvatar(_ context.Context, userID string, _ *multipart.FileHeader) (dto.UserResponse, error) {
	s.uploadKind = "avatar"
	return dto.UserResponse{ID: userID, AvatarURL: "https://cdn.example.com/a.png"}, s.err
}

func (s *stubUserService) UploadCover(_ context.Context, userID string, _ *multipart.FileHeader) (dto.UserResponse, error) {
	s.uploadKind = "cover"
	return dto.UserResponse{ID: userID, CoverURL: "https://cdn.example.com/c.png"}, s.err
}

type stubGraphService struct {
	err        error
	reconciled int64
	lastTarget string
}

func (s *stubGraphService) Follow(_ context.Context, _, targetID string) error {
	s.lastTarget = targetID
	return s.err
}
func (s *stubGraphService) Unfollow(_ context.Context, _, targetID string) error {
	s.lastTarget = targetID
	return s.err
}
func (s *stubGraphService) IsFollowing(context.Context, string, string) (bool, error) {
	return true, s.err
}
func (s *stubGraphService) Followers(_ context.Context, userID string, _ int) ([]dto.UserSummary, error) {
	s.lastTarget = userID
	return []dto.UserSummary{}, s.err
}
func (s *stubGraphService) Following(context.Context, string, int) ([]dto.UserSummary, error) {
	return []dto.UserSummary{}, s.err
}
func (s *stubGraphService) Reconcile(context.Context) (int64, error) { return s.reconciled, s.err }

func newUserApp(users service.UserService, graph service.SocialGraphService, userID string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/users", withUser(userID, "user"))
	handler.NewUserHandler(users, &stubDreamService{}, nopLogger()).Register(group)
	handler.NewFollowHandler(graph, users, nopLogger()).Register(group)
	return app
}

func TestUserHandlerMeIsNotAnID(t *testing.T) {
	users := &stubUserService{}
	app := newUserApp(users, &stubGraphService{}, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "u-1", users.lastLookup)
	require.Equal(t, "u-1", users.lastViewer)
}

func TestUserHandlerProfileByUsername(t *testing.T) {
	users := &stubUserService{}
	app := newUserApp(users, &stubGraphService{}, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/deniz", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "deniz", users.lastLookup)
}

func TestUserHandlerUploadCoverTooLarge(t *testing.T) {
	users := &stubUserService{err: service.ErrUploadTooLarge}
	app := newUserApp(users, &stubGraphService{}, "u-1")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/cover", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Equal(t, "cover", users.uploadKind)
}

func TestUserHandlerUploadRequiresFile(t *testing.T) {
	app := newUserApp(&stubUserService{}, &stubGraphService{}, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/users/me/avatar", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFollowHandlerSelfFollowRejected(t *testing.T) {
	app := newUserApp(&stubUserService{}, &stubGraphService{err: service.ErrInvalidOperation}, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/users/u-1/follow", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFollowHandlerFollowAndStatus(t *testing.T) {
	app := newUserApp(&stubUserService{}, &stubGraphService{}, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/users/u-2/follow", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/u-2/follow", nil))
	require.NoError(t, err)

	var body struct {
		Data dto.FollowStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "u-2", body.Data.UserID)
	require.True(t, body.Data.IsFollowing)
}

func TestFollowHandlerResolvesUsername(t *testing.T) {
	users := &stubUserService{handles: map[string]string{"ayse": "7f3c9a10-uuid", "7f3c9a10-uuid": "7f3c9a10-uuid"}}
	graph := &stubGraphService{}
	app := newUserApp(users, graph, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/users/ayse/follow", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "7f3c9a10-uuid", graph.lastTarget)

	var body struct {
		Data dto.FollowStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "7f3c9a10-uuid", body.Data.UserID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/ayse/followers", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "7f3c9a10-uuid", graph.lastTarget)
}

func TestUserHandlerDreamsByUsername(t *testing.T) {
	dreams := &stubDreamService{}
	users := &stubUserService{handles: map[string]string{"deniz": "u-2"}}
	app := fiber.New()
	group := app.Group("/api/v1/users", withUser("u-1", "user"))
	handler.NewUserHandler(users, dreams, nopLogger()).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/deniz/dreams", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "u-2", dreams.lastOwner)
	require.Equal(t, "u-1", dreams.lastActor)
}

func TestFollowHandlerUnknownUser(t *testing.T) {
	users := &stubUserService{handles: map[string]string{}}
	graph := &stubGraphService{}
	app := newUserApp(users, graph, "u-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/users/nobody/follow", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Empty(t, graph.lastTarget)
}

func TestAdminHandlerReconcileRequiresAdmin(t *testing.T) {
	graph := &stubGraphService{reconciled: 7}
	build := func(role string) *fiber.App {
		app := fiber.New()
		group := app.Group("/api/v1/admin", withUser("u-1", role), middleware.RequireRole(middleware.AuthRoleAdmin))
		handler.NewAdminHandler(graph, &stubDreamService{}, nopLogger()).Register(group)
		return app
	}

	resp, err := build("user").Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/follows/reconcile", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = build("admin").Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/follows/reconcile", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ReconcileResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.EqualValues(t, 7, body.Data.UpdatedUsers)
}
