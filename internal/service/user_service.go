package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/repository"
)

// UserService exposes profile reads and edits.
type UserService interface {
	GetProfile(ctx context.Context, idOrUsername, viewerID string) (dto.UserResponse, error)
	ResolveID(ctx context.Context, idOrUsername string) (string, error)
	Search(ctx context.Context, query string) ([]dto.UserSummary, error)
	UpdateProfile(ctx context.Context, userID string, payload dto.ProfileUpdateRequest) (dto.UserResponse, error)
	UpdateExtendedProfile(ctx context.Context, userID string, payload dto.ExtendedProfileRequest) (dto.UserResponse, error)
	UploadAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (dto.UserResponse, error)
	UploadCover(ctx context.Context, userID string, file *multipart.FileHeader) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	uploads   UploadService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewUserService constructs the profile service. uploads may be nil when storage is not configured.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository, uploads UploadService, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		follows:   follows,
		uploads:   uploads,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

// resolve looks the key up as an id and as a username. A registered account
// wins over a placeholder row whose id happens to equal the key.
func (s *userService) resolve(ctx context.Context, idOrUsername string) (models.User, error) {
	key := strings.TrimSpace(idOrUsername)
	if key == "" {
		return models.User{}, ErrNotFound
	}

	byID, idErr := s.users.FindByID(ctx, key)
	if idErr == nil && byID.Username != nil {
		return byID, nil
	}
	if idErr != nil && !errors.Is(idErr, gorm.ErrRecordNotFound) {
		return models.User{}, idErr
	}

	byName, err := s.users.FindByUsername(ctx, NormalizeUsername(key))
	switch {
	case err == nil:
		return byName, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.User{}, err
	case idErr == nil:
		return byID, nil
	}
	return models.User{}, ErrNotFound
}

// ResolveID maps a path segment holding an id or a username to the user id.
func (s *userService) ResolveID(ctx context.Context, idOrUsername string) (string, error) {
	user, err := s.resolve(ctx, idOrUsername)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// GetProfile resolves the user by id or username.
// The extended profile is only returned to its owner.
func (s *userService) GetProfile(ctx context.Context, idOrUsername, viewerID string) (dto.UserResponse, error) {
	user, err := s.resolve(ctx, idOrUsername)
	if err != nil {
		return dto.UserResponse{}, err
	}

	response := dto.NewUserResponse(user)
	switch {
	case viewerID == user.ID:
		extended := user.ExtendedProfile.Data()
		response.ExtendedProfile = &extended
	case viewerID != "":
		following, err := s.follows.Exists(ctx, viewerID, user.ID)
		if err != nil {
			return dto.UserResponse{}, err
		}
		response.IsFollowing = &following
	}
	return response, nil
}

func (s *userService) Search(ctx context.Context, query string) ([]dto.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.UserSummary{}, nil
	}

	users, err := s.users.Search(ctx, query, 20)
	if err != nil {
		return nil, err
	}
	return dto.NewUserSummarySlice(users), nil
}

// UpdateProfile saves name and bio; the repository rewrites the copies on dreams and comments.
func (s *userService) UpdateProfile(ctx context.Context, userID string, payload dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.DisplayName))
	if name == "" {
		return dto.UserResponse{}, fmt.Errorf("%w: display name is required", ErrInvalidOperation)
	}

	user := models.User{
		ID:          userID,
		DisplayName: name,
		Bio:         strings.TrimSpace(s.sanitizer.Sanitize(payload.Bio)),
	}
	if err := s.users.UpdateProfile(ctx, &user); err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}

	return s.ownView(user), nil
}

func (s *userService) UpdateExtendedProfile(ctx context.Context, userID string, payload dto.ExtendedProfileRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	profile := payload.ToModel()
	profile.Gender = strings.TrimSpace(s.sanitizer.Sanitize(profile.Gender))
	profile.Age = strings.TrimSpace(s.sanitizer.Sanitize(profile.Age))
	profile.Occupation = strings.TrimSpace(s.sanitizer.Sanitize(profile.Occupation))
	profile.Interests = strings.TrimSpace(s.sanitizer.Sanitize(profile.Interests))
	profile.DreamPreferences = strings.TrimSpace(s.sanitizer.Sanitize(profile.DreamPreferences))
	profile.PersonalityTraits = strings.TrimSpace(s.sanitizer.Sanitize(profile.PersonalityTraits))

	if err := s.users.UpdateExtendedProfile(ctx, userID, profile); err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}

	return s.reload(ctx, userID)
}

func (s *userService) UploadAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (dto.UserResponse, error) {
	return s.uploadImage(ctx, userID, file, UploadKindAvatar, "avatar_url")
}

func (s *userService) UploadCover(ctx context.Context, userID string, file *multipart.FileHeader) (dto.UserResponse, error) {
	return s.uploadImage(ctx, userID, file, UploadKindCover, "cover_url")
}

func (s *userService) uploadImage(ctx context.Context, userID string, file *multipart.FileHeader, kind, column string) (dto.UserResponse, error) {
	if s.uploads == nil {
		return dto.UserResponse{}, errors.New("image storage is not configured")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}

	uploaded, err := s.uploads.Upload(ctx, file, UploadTarget{
		UserID: userID,
		Kind:   kind,
		Folder: UserImageFolder(userID),
	})
	if err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.users.UpdateImage(ctx, userID, column, uploaded.URL); err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}

	s.logger.Info().Str("user_id", userID).Str("kind", kind).Msg("profile image updated")
	return s.reload(ctx, userID)
}

func (s *userService) reload(ctx context.Context, userID string) (dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}
	return s.ownView(user), nil
}

func (s *userService) ownView(user models.User) dto.UserResponse {
	response := dto.NewUserResponse(user)
	extended := user.ExtendedProfile.Data()
	response.ExtendedProfile = &extended
	return response
}
