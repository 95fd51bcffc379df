package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/repository"
	"github.com/noah-isme/bring-api/pkg/ai"
)

// DreamInterpreter is the part of the AI gateway the service depends on.
type DreamInterpreter interface {
	Resolve(requested ai.Mode, profile *ai.Profile) ai.Mode
	Interpret(ctx context.Context, dream string, requested ai.Mode, profile *ai.Profile) ai.Interpretation
}

// AICommentService produces and stores AI interpretations of dreams.
type AICommentService interface {
	Interpret(ctx context.Context, dreamID, userID, mode string) (dto.InterpretationResponse, error)
	List(ctx context.Context, dreamID, userID string) ([]dto.InterpretationResponse, error)
}

type aiCommentService struct {
	comments    repository.AICommentRepository
	dreams      repository.DreamRepository
	users       repository.UserRepository
	interpreter DreamInterpreter
	maxPerDream int
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAICommentService constructs the interpretation service.
func NewAICommentService(comments repository.AICommentRepository, dreams repository.DreamRepository, users repository.UserRepository, interpreter DreamInterpreter, maxPerDream int, logger zerolog.Logger) AICommentService {
	if maxPerDream <= 0 {
		maxPerDream = 3
	}

	return &aiCommentService{
		comments:    comments,
		dreams:      dreams,
		users:       users,
		interpreter: interpreter,
		maxPerDream: maxPerDream,
		logger:      logger.With().Str("component", "ai_comment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/bring-api/internal/service/ai_comment"),
		now:         time.Now,
	}
}

// Interpret generates an interpretation for the dream and stores it under the resolved mode.
// A failed generation is answered with the fallback text and is not stored.
func (s *aiCommentService) Interpret(ctx context.Context, dreamID, userID, mode string) (dto.InterpretationResponse, error) {
	requested := ai.ParseMode(mode)

	spanCtx, span := s.tracer.Start(ctx, "ai_comments.interpret", trace.WithAttributes(
		attribute.String("dream.id", dreamID),
		attribute.String("ai.mode.requested", string(requested)),
	))
	defer span.End()

	dream, err := s.dreams.FindByID(spanCtx, dreamID)
	if err != nil {
		return dto.InterpretationResponse{}, translateNotFound(err)
	}
	if !dream.VisibleTo(userID) {
		return dto.InterpretationResponse{}, ErrNotFound
	}

	user, err := s.users.FindByID(spanCtx, userID)
	if err != nil {
		return dto.InterpretationResponse{}, translateNotFound(err)
	}
	profile := profileFor(user)

	resolved := s.interpreter.Resolve(requested, profile)
	if err := s.checkQuota(spanCtx, dream.ID, userID, resolved); err != nil {
		return dto.InterpretationResponse{}, err
	}

	result := s.interpreter.Interpret(spanCtx, dream.Content, requested, profile)
	if !result.OK() {
		span.RecordError(result.Err)
		return dto.InterpretationResponse{
			DreamID:       dream.ID,
			Text:          result.Text,
			Mode:          string(result.Mode),
			RequestedMode: string(requested),
			Persisted:     false,
			CreatedAt:     s.now().UTC(),
		}, nil
	}

	comment := models.AIComment{
		DreamID: dream.ID,
		UserID:  userID,
		Mode:    string(result.Mode),
		Text:    result.Text,
	}
	if err := s.comments.Replace(spanCtx, &comment); err != nil {
		span.RecordError(err)
		return dto.InterpretationResponse{}, fmt.Errorf("store interpretation: %w", err)
	}

	response := dto.NewInterpretationResponse(comment)
	response.RequestedMode = string(requested)
	return response, nil
}

func (s *aiCommentService) List(ctx context.Context, dreamID, userID string) ([]dto.InterpretationResponse, error) {
	dream, err := s.dreams.FindByID(ctx, dreamID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if !dream.VisibleTo(userID) {
		return nil, ErrNotFound
	}

	comments, err := s.comments.ListByDreamAndUser(ctx, dream.ID, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewInterpretationResponseSlice(comments), nil
}

// checkQuota allows replacing an existing mode and otherwise caps the number of distinct modes.
func (s *aiCommentService) checkQuota(ctx context.Context, dreamID, userID string, mode ai.Mode) error {
	exists, err := s.comments.HasMode(ctx, dreamID, userID, string(mode))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	total, err := s.comments.CountModes(ctx, dreamID, userID)
	if err != nil {
		return err
	}
	if total >= int64(s.maxPerDream) {
		return ErrAIQuotaExceeded
	}
	return nil
}

func profileFor(user models.User) *ai.Profile {
	extended := user.ExtendedProfile.Data()
	return &ai.Profile{
		DisplayName: user.DisplayName,
		Username:    user.Handle(),
		Age:         extended.Age,
		Occupation:  extended.Occupation,
		Interests:   extended.Interests,
	}
}
