package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/repository"
)

// CommentService manages user comments under dreams.
type CommentService interface {
	Create(ctx context.Context, dreamID, authorID string, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	List(ctx context.Context, dreamID, viewerID string, limit, offset int) ([]dto.CommentResponse, error)
}

type commentService struct {
	comments      repository.CommentRepository
	dreams        repository.DreamRepository
	users         repository.UserRepository
	notifications NotificationPublisher
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
}

// NewCommentService constructs the comment service. notifications may be nil.
func NewCommentService(comments repository.CommentRepository, dreams repository.DreamRepository, users repository.UserRepository, notifications NotificationPublisher, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		comments:      comments,
		dreams:        dreams,
		users:         users,
		notifications: notifications,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "comment_service").Logger(),
	}
}

func (s *commentService) Create(ctx context.Context, dreamID, authorID string, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	dream, err := s.dreams.FindByID(ctx, dreamID)
	if err != nil {
		return dto.CommentResponse{}, translateNotFound(err)
	}
	if !dream.VisibleTo(authorID) {
		return dto.CommentResponse{}, ErrNotFound
	}

	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return dto.CommentResponse{}, translateNotFound(err)
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	if text == "" {
		return dto.CommentResponse{}, fmt.Errorf("%w: comment is empty", ErrInvalidOperation)
	}

	comment := models.Comment{
		DreamID:      dream.ID,
		Text:         text,
		AuthorID:     author.ID,
		AuthorName:   author.Name(),
		AuthorAvatar: author.AvatarURL,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, fmt.Errorf("create comment: %w", err)
	}

	if s.notifications != nil && dream.OwnerID != author.ID {
		if _, err := s.notifications.Publish(ctx, CommentNotice(dream.OwnerID, author.Name(), text)); err != nil {
			s.logger.Warn().Err(err).Str("dream_id", dream.ID).Msg("failed to publish comment notification")
		}
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) List(ctx context.Context, dreamID, viewerID string, limit, offset int) ([]dto.CommentResponse, error) {
	dream, err := s.dreams.FindByID(ctx, dreamID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if !dream.VisibleTo(viewerID) {
		return nil, ErrNotFound
	}

	comments, err := s.comments.ListByDream(ctx, dream.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewCommentResponseSlice(comments), nil
}
