package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/repository"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,16}$`)

// NormalizeUsername lowercases and trims a username without validating it.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidUsername reports whether the normalised username is acceptable.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// AuthService registers accounts and issues access tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	CheckUsername(ctx context.Context, username string) (dto.UsernameCheckResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	secret    []byte
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service signing HS256 tokens with secret.
func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &authService{
		users:     users,
		validator: validate,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	payload.Username = NormalizeUsername(payload.Username)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}
	if !ValidUsername(payload.Username) {
		return dto.AuthResponse{}, ErrInvalidUsername
	}

	taken, err := s.users.UsernameExists(ctx, payload.Username)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if taken {
		return dto.AuthResponse{}, ErrUsernameTaken
	}

	if _, err := s.users.FindByEmail(ctx, payload.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	email := payload.Email
	username := payload.Username
	user := models.User{
		Email:        &email,
		Username:     &username,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(payload.DisplayName),
		Role:         "user",
	}
	if err := s.users.Create(ctx, &user); err != nil {
		// Lost a race against another registration; the unique index decided.
		if exists, lookupErr := s.users.UsernameExists(ctx, username); lookupErr == nil && exists {
			return dto.AuthResponse{}, ErrUsernameTaken
		}
		return dto.AuthResponse{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", username).Msg("user registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) CheckUsername(ctx context.Context, username string) (dto.UsernameCheckResponse, error) {
	username = NormalizeUsername(username)
	if !ValidUsername(username) {
		return dto.UsernameCheckResponse{}, ErrInvalidUsername
	}

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return dto.UsernameCheckResponse{}, err
	}
	return dto.UsernameCheckResponse{Username: username, Available: !taken}, nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	role := user.Role
	if role == "" {
		role = "user"
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}).SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return dto.AuthResponse{Token: token, ExpiresAt: expiresAt, User: dto.NewUserResponse(user)}, nil
}
