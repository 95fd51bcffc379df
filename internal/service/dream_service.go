package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/observability"
	"github.com/noah-isme/bring-api/internal/repository"
)

const publicFeedKey = "dreams:feed:v1"

// DreamService exposes dream journal use-cases.
type DreamService interface {
	Create(ctx context.Context, ownerID string, payload dto.DreamCreateRequest) (dto.DreamResponse, error)
	Get(ctx context.Context, dreamID, viewerID string) (dto.DreamResponse, error)
	Update(ctx context.Context, dreamID, actorID string, payload dto.DreamUpdateRequest) (dto.DreamResponse, error)
	ListByOwner(ctx context.Context, ownerID, viewerID string, limit, offset int) ([]dto.DreamResponse, error)
	ListPublic(ctx context.Context) ([]dto.DreamResponse, error)
	SafeDelete(ctx context.Context, dreamID, actorID string) error
	Like(ctx context.Context, dreamID, userID string) (dto.LikeResponse, error)
	Unlike(ctx context.Context, dreamID, userID string) (dto.LikeResponse, error)
}

type dreamService struct {
	repo      repository.DreamRepository
	users     repository.UserRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewDreamService constructs the dream service. cache may be nil to disable feed caching.
func NewDreamService(repo repository.DreamRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) DreamService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &dreamService{
		repo:      repo,
		users:     users,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "dream_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/bring-api/internal/service/dream"),
		now:       time.Now,
	}
}

func (s *dreamService) Create(ctx context.Context, ownerID string, payload dto.DreamCreateRequest) (dto.DreamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DreamResponse{}, err
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return dto.DreamResponse{}, translateNotFound(err)
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if title == "" || content == "" {
		return dto.DreamResponse{}, fmt.Errorf("%w: title and content are required", ErrInvalidOperation)
	}

	dream := models.Dream{
		Title:         title,
		Content:       content,
		OwnerID:       owner.ID,
		OwnerName:     owner.Name(),
		OwnerAvatar:   owner.AvatarURL,
		OwnerUsername: owner.Handle(),
		IsPrivate:     payload.IsPrivate,
	}
	if err := s.repo.Create(ctx, &dream); err != nil {
		return dto.DreamResponse{}, fmt.Errorf("create dream: %w", err)
	}

	if !dream.IsPrivate {
		s.invalidateFeed(ctx)
	}

	return dto.NewDreamResponse(dream), nil
}

func (s *dreamService) Get(ctx context.Context, dreamID, viewerID string) (dto.DreamResponse, error) {
	dream, err := s.visibleDream(ctx, dreamID, viewerID)
	if err != nil {
		return dto.DreamResponse{}, err
	}

	response := dto.NewDreamResponse(dream)
	if viewerID != "" {
		liked, err := s.repo.HasLiked(ctx, dream.ID, viewerID)
		if err != nil {
			return dto.DreamResponse{}, err
		}
		response.Liked = liked
	}
	return response, nil
}

func (s *dreamService) Update(ctx context.Context, dreamID, actorID string, payload dto.DreamUpdateRequest) (dto.DreamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DreamResponse{}, err
	}

	dream, err := s.repo.FindByID(ctx, dreamID)
	if err != nil {
		return dto.DreamResponse{}, translateNotFound(err)
	}
	if dream.OwnerID != actorID {
		return dto.DreamResponse{}, ErrForbidden
	}

	dream.Title = strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	dream.Content = strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if dream.Title == "" || dream.Content == "" {
		return dto.DreamResponse{}, fmt.Errorf("%w: title and content are required", ErrInvalidOperation)
	}

	if err := s.repo.Update(ctx, &dream); err != nil {
		return dto.DreamResponse{}, translateNotFound(err)
	}

	if !dream.IsPrivate {
		s.invalidateFeed(ctx)
	}

	updated, err := s.repo.FindByID(ctx, dream.ID)
	if err != nil {
		return dto.DreamResponse{}, translateNotFound(err)
	}
	return dto.NewDreamResponse(updated), nil
}

func (s *dreamService) ListByOwner(ctx context.Context, ownerID, viewerID string, limit, offset int) ([]dto.DreamResponse, error) {
	dreams, err := s.repo.ListByOwner(ctx, ownerID, ownerID == viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewDreamResponseSlice(dreams), nil
}

// ListPublic returns the newest public dreams, served from redis while the cached copy is fresh.
func (s *dreamService) ListPublic(ctx context.Context) ([]dto.DreamResponse, error) {
	if cached, ok := s.fetchCache(ctx); ok {
		return cached, nil
	}

	dreams, err := s.repo.ListPublic(ctx, 50)
	if err != nil {
		return nil, err
	}

	response := dto.NewDreamResponseSlice(dreams)
	s.writeCache(ctx, response)
	return response, nil
}

// SafeDelete moves the dream into the trash table and removes the live row.
// An empty actorID is a system call and skips the ownership check.
func (s *dreamService) SafeDelete(ctx context.Context, dreamID, actorID string) error {
	spanCtx, span := s.tracer.Start(ctx, "dreams.safe_delete", trace.WithAttributes(
		attribute.String("dream.id", dreamID),
		attribute.String("dream.actor_id", actorID),
	))
	defer span.End()

	dream, err := s.repo.FindByID(spanCtx, dreamID)
	if err != nil {
		err = translateNotFound(err)
		if err == ErrNotFound {
			observability.SoftDeletes().WithLabelValues("not_found").Inc()
		} else {
			observability.SoftDeletes().WithLabelValues("error").Inc()
			span.RecordError(err)
		}
		return err
	}

	if actorID != "" && dream.OwnerID != actorID {
		observability.SoftDeletes().WithLabelValues("forbidden").Inc()
		return ErrForbidden
	}

	if err := s.repo.SoftDelete(spanCtx, dream, s.now().UTC()); err != nil {
		observability.SoftDeletes().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "soft delete failed")
		s.logger.Error().Err(err).Str("dream_id", dreamID).Msg("soft delete failed, live dream kept")
		return fmt.Errorf("soft delete dream: %w", translateNotFound(err))
	}

	observability.SoftDeletes().WithLabelValues("deleted").Inc()
	s.logger.Info().Str("dream_id", dreamID).Str("owner_id", dream.OwnerID).Msg("dream moved to trash")

	if !dream.IsPrivate {
		s.invalidateFeed(spanCtx)
	}
	return nil
}

func (s *dreamService) Like(ctx context.Context, dreamID, userID string) (dto.LikeResponse, error) {
	return s.toggleLike(ctx, dreamID, userID, true)
}

func (s *dreamService) Unlike(ctx context.Context, dreamID, userID string) (dto.LikeResponse, error) {
	return s.toggleLike(ctx, dreamID, userID, false)
}

func (s *dreamService) toggleLike(ctx context.Context, dreamID, userID string, like bool) (dto.LikeResponse, error) {
	dream, err := s.visibleDream(ctx, dreamID, userID)
	if err != nil {
		return dto.LikeResponse{}, err
	}

	var changed bool
	if like {
		changed, err = s.repo.Like(ctx, dream.ID, userID)
	} else {
		changed, err = s.repo.Unlike(ctx, dream.ID, userID)
	}
	if err != nil {
		return dto.LikeResponse{}, err
	}

	if changed && !dream.IsPrivate {
		s.invalidateFeed(ctx)
	}

	current, err := s.repo.FindByID(ctx, dream.ID)
	if err != nil {
		return dto.LikeResponse{}, translateNotFound(err)
	}

	return dto.LikeResponse{DreamID: current.ID, Liked: like, LikeCount: current.LikeCount}, nil
}

func (s *dreamService) visibleDream(ctx context.Context, dreamID, viewerID string) (models.Dream, error) {
	dream, err := s.repo.FindByID(ctx, dreamID)
	if err != nil {
		return models.Dream{}, translateNotFound(err)
	}
	if !dream.VisibleTo(viewerID) {
		return models.Dream{}, ErrNotFound
	}
	return dream, nil
}

func (s *dreamService) fetchCache(ctx context.Context) ([]dto.DreamResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, publicFeedKey).Result()
	if err != nil {
		return nil, false
	}

	var result []dto.DreamResponse
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode dream feed cache")
		return nil, false
	}
	return result, true
}

func (s *dreamService) writeCache(ctx context.Context, result []dto.DreamResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode dream feed cache")
		return
	}
	if err := s.cache.Set(ctx, publicFeedKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store dream feed cache")
	}
}

func (s *dreamService) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, publicFeedKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dream feed cache")
	}
}
