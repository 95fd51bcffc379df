package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/observability"
	"github.com/noah-isme/bring-api/internal/repository"
)

// SocialGraphService maintains who-follows-whom and the follower/following counters.
type SocialGraphService interface {
	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
	IsFollowing(ctx context.Context, actorID, targetID string) (bool, error)
	Followers(ctx context.Context, userID string, limit int) ([]dto.UserSummary, error)
	Following(ctx context.Context, userID string, limit int) ([]dto.UserSummary, error)
	Reconcile(ctx context.Context) (int64, error)
}

type socialGraphService struct {
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications NotificationPublisher
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewSocialGraphService constructs the social graph service. notifications may be nil.
func NewSocialGraphService(follows repository.FollowRepository, users repository.UserRepository, notifications NotificationPublisher, logger zerolog.Logger) SocialGraphService {
	return &socialGraphService{
		follows:       follows,
		users:         users,
		notifications: notifications,
		logger:        logger.With().Str("component", "social_graph_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/bring-api/internal/service/social_graph"),
	}
}

func validatePair(actorID, targetID string) error {
	if actorID == "" || targetID == "" {
		return fmt.Errorf("%w: both user ids are required", ErrInvalidOperation)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: users cannot target themselves", ErrInvalidOperation)
	}
	return nil
}

func (s *socialGraphService) Follow(ctx context.Context, actorID, targetID string) error {
	actorID, targetID = strings.TrimSpace(actorID), strings.TrimSpace(targetID)
	if err := validatePair(actorID, targetID); err != nil {
		observability.SocialGraphOperations().WithLabelValues("follow", "rejected").Inc()
		return err
	}

	spanCtx, span := s.tracer.Start(ctx, "social_graph.follow", trace.WithAttributes(
		attribute.String("social.actor_id", actorID),
		attribute.String("social.target_id", targetID),
	))
	defer span.End()

	created, err := s.follows.Follow(spanCtx, actorID, targetID)
	if err != nil {
		observability.SocialGraphOperations().WithLabelValues("follow", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "follow failed")
		return fmt.Errorf("follow: %w", err)
	}

	if !created {
		observability.SocialGraphOperations().WithLabelValues("follow", "noop").Inc()
		return nil
	}
	observability.SocialGraphOperations().WithLabelValues("follow", "created").Inc()

	s.notifyFollow(spanCtx, actorID, targetID)
	return nil
}

func (s *socialGraphService) Unfollow(ctx context.Context, actorID, targetID string) error {
	actorID, targetID = strings.TrimSpace(actorID), strings.TrimSpace(targetID)
	if err := validatePair(actorID, targetID); err != nil {
		observability.SocialGraphOperations().WithLabelValues("unfollow", "rejected").Inc()
		return err
	}

	spanCtx, span := s.tracer.Start(ctx, "social_graph.unfollow", trace.WithAttributes(
		attribute.String("social.actor_id", actorID),
		attribute.String("social.target_id", targetID),
	))
	defer span.End()

	removed, err := s.follows.Unfollow(spanCtx, actorID, targetID)
	if err != nil {
		observability.SocialGraphOperations().WithLabelValues("unfollow", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "unfollow failed")
		return fmt.Errorf("unfollow: %w", err)
	}

	outcome := "noop"
	if removed {
		outcome = "removed"
	}
	observability.SocialGraphOperations().WithLabelValues("unfollow", outcome).Inc()
	return nil
}

func (s *socialGraphService) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	actorID, targetID = strings.TrimSpace(actorID), strings.TrimSpace(targetID)
	if actorID == "" || targetID == "" {
		return false, nil
	}
	return s.follows.Exists(ctx, actorID, targetID)
}

func (s *socialGraphService) Followers(ctx context.Context, userID string, limit int) ([]dto.UserSummary, error) {
	users, err := s.follows.ListFollowers(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewUserSummarySlice(users), nil
}

func (s *socialGraphService) Following(ctx context.Context, userID string, limit int) ([]dto.UserSummary, error) {
	users, err := s.follows.ListFollowing(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewUserSummarySlice(users), nil
}

func (s *socialGraphService) Reconcile(ctx context.Context) (int64, error) {
	spanCtx, span := s.tracer.Start(ctx, "social_graph.reconcile")
	defer span.End()

	updated, err := s.follows.Reconcile(spanCtx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("reconcile counters: %w", err)
	}

	s.logger.Info().Int64("updated_users", updated).Msg("counters reconciled")
	return updated, nil
}

func (s *socialGraphService) notifyFollow(ctx context.Context, actorID, targetID string) {
	if s.notifications == nil {
		return
	}

	name := ""
	if actor, err := s.users.FindByID(ctx, actorID); err == nil {
		name = actor.Name()
	}

	if _, err := s.notifications.Publish(ctx, FollowNotice(targetID, name)); err != nil {
		s.logger.Warn().Err(err).Str("target_id", targetID).Msg("failed to publish follow notification")
	}
}
