package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/handler"
	"github.com/noah-isme/bring-api/internal/service"
)

type stubDreamService struct {
	dream      dto.DreamResponse
	err        error
	lastOwner  string
	lastActor  string
	lastCreate dto.DreamCreateRequest
}

func (s *stubDreamService) Create(_ context.Context, ownerID string, payload dto.DreamCreateRequest) (dto.DreamResponse, error) {
	s.lastOwner = ownerID
	s.lastCreate = payload
	if s.err != nil {
		return dto.DreamResponse{}, s.err
	}
	out := s.dream
	out.Title = payload.Title
	out.Content = payload.Content
	out.IsPrivate = payload.IsPrivate
	return out, nil
}

func (s *stubDreamService) Get(_ context.Context, _ string, viewerID string) (dto.DreamResponse, error) {
	s.lastActor = viewerID
	return s.dream, s.err
}

func (s *stubDreamService) Update(_ context.Context, _ string, actorID string, _ dto.DreamUpdateRequest) (dto.DreamResponse, error) {
	s.lastActor = actorID
	return s.dream, s.err
}

func (s *stubDreamService) ListByOwner(_ context.Context, ownerID, viewerID string, _, _ int) ([]dto.DreamResponse, error) {
	s.lastOwner = ownerID
	s.lastActor = viewerID
	if s.err != nil {
		return nil, s.err
	}
	return []dto.DreamResponse{s.dream}, nil
}

func (s *stubDreamService) ListPublic(context.Context) ([]dto.DreamResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []dto.DreamResponse{s.dream}, nil
}

func (s *stubDreamService) SafeDelete(_ context.Context, _ string, actorID string) error {
	s.lastActor = actorID
	return s.err
}

func (s *stubDreamService) Like(_ context.Context, dreamID, _ string) (dto.LikeResponse, error) {
	return dto.LikeResponse{DreamID: dreamID, Liked: true, LikeCount: 1}, s.err
}

func (s *stubDreamService) Unlike(_ context.Context, dreamID, _ string) (dto.LikeResponse, error) {
	return dto.LikeResponse{DreamID: dreamID, Liked: false}, s.err
}

type stubCommentService struct {
	err error
}

func (s *stubCommentService) Create(_ context.Context, dreamID, authorID string, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if s.err != nil {
		return dto.CommentResponse{}, s.err
	}
	return dto.CommentResponse{ID: "c-1", DreamID: dreamID, Text: payload.Text, Author: dto.OwnerInfo{ID: authorID}}, nil
}

func (s *stubCommentService) List(context.Context, string, string, int, int) ([]dto.CommentResponse, error) {
	return []dto.CommentResponse{}, s.err
}

func sampleDream() dto.DreamResponse {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return dto.DreamResponse{
		ID:        "d-1",
		Title:     "Flying",
		Content:   "over the bosphorus",
		Owner:     dto.OwnerInfo{ID: "u-1", Name: "Ayla", Username: "ayla"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newDreamApp(dreams service.DreamService, comments service.CommentService, userID string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/dreams", withUser(userID, "user"))
	handler.NewDreamHandler(dreams, comments, nopLogger()).Register(group)
	return app
}

func TestDreamHandlerCreateMatchesContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "dream_response.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	svc := &stubDreamService{dream: sampleDream()}
	app := newDreamApp(svc, &stubCommentService{}, "u-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dreams/", jsonBody(t, map[string]interface{}{
		"title":      "Flying",
		"content":    "over the bosphorus",
		"is_private": true,
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))

	require.Equal(t, "u-1", svc.lastOwner)
	require.True(t, svc.lastCreate.IsPrivate)
}

func TestDreamHandlerRequiresAuthentication(t *testing.T) {
	app := newDreamApp(&stubDreamService{dream: sampleDream()}, &stubCommentService{}, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/dreams/d-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDreamHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		err    error
		status int
	}{
		{"delete by stranger", http.MethodDelete, "/api/v1/dreams/d-1", service.ErrForbidden, fiber.StatusForbidden},
		{"missing dream", http.MethodGet, "/api/v1/dreams/missing", service.ErrNotFound, fiber.StatusNotFound},
		{"feed failure", http.MethodGet, "/api/v1/dreams/feed", context.DeadlineExceeded, fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newDreamApp(&stubDreamService{err: tc.err}, &stubCommentService{}, "u-2")
			resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
		})
	}
}

func TestDreamHandlerInternalErrorsDoNotLeak(t *testing.T) {
	app := newDreamApp(&stubDreamService{err: context.DeadlineExceeded}, &stubCommentService{}, "u-2")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dreams/feed", nil))
	require.NoError(t, err)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "failed to load feed", body.Message)
}

func TestDreamHandlerFeedRouteIsNotTreatedAsID(t *testing.T) {
	svc := &stubDreamService{dream: sampleDream()}
	app := newDreamApp(svc, &stubCommentService{}, "u-2")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dreams/feed", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.DreamResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Empty(t, svc.lastActor)
}

func TestDreamHandlerCreateComment(t *testing.T) {
	app := newDreamApp(&stubDreamService{}, &stubCommentService{}, "u-2")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dreams/d-1/comments", jsonBody(t, map[string]string{"text": "beautiful"}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.CommentResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "d-1", body.Data.DreamID)
	require.Equal(t, "u-2", body.Data.Author.ID)
}
