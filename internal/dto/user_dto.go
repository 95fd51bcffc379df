package dto

import (
	"time"

	"github.com/noah-isme/bring-api/internal/models"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=6,max=128"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=128"`
	Username    string `json:"username" validate:"required,min=3,max=16"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued access token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ProfileUpdateRequest edits the public profile.
type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=128"`
	Bio         string `json:"bio" validate:"max=500"`
}

// ExtendedProfileRequest stores optional details used to personalise interpretations.
type ExtendedProfileRequest struct {
	Gender            string `json:"gender" validate:"max=32"`
	Age               string `json:"age" validate:"max=8"`
	Occupation        string `json:"occupation" validate:"max=128"`
	Interests         string `json:"interests" validate:"max=500"`
	DreamPreferences  string `json:"dream_preferences" validate:"max=500"`
	PersonalityTraits string `json:"personality_traits" validate:"max=500"`
}

// ToModel converts the request into the stored profile.
func (r ExtendedProfileRequest) ToModel() models.ExtendedProfile {
	return models.ExtendedProfile{
		Gender:            r.Gender,
		Age:               r.Age,
		Occupation:        r.Occupation,
		Interests:         r.Interests,
		DreamPreferences:  r.DreamPreferences,
		PersonalityTraits: r.PersonalityTraits,
	}
}

// UserResponse is the public view of a user profile.
type UserResponse struct {
	ID               string                  `json:"id"`
	DisplayName      string                  `json:"display_name"`
	Username         string                  `json:"username"`
	Bio              string                  `json:"bio"`
	AvatarURL        string                  `json:"avatar_url"`
	CoverURL         string                  `json:"cover_url"`
	FollowerCount    int                     `json:"follower_count"`
	FollowingCount   int                     `json:"following_count"`
	DreamCount       int                     `json:"dream_count"`
	ProfileCompleted bool                    `json:"profile_completed"`
	ExtendedProfile  *models.ExtendedProfile `json:"extended_profile,omitempty"`
	IsFollowing      *bool                   `json:"is_following,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

// NewUserResponse converts a user model into its public view.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:               user.ID,
		DisplayName:      user.Name(),
		Username:         user.Handle(),
		Bio:              user.Bio,
		AvatarURL:        user.AvatarURL,
		CoverURL:         user.CoverURL,
		FollowerCount:    user.FollowerCount,
		FollowingCount:   user.FollowingCount,
		DreamCount:       user.DreamCount,
		ProfileCompleted: user.ProfileCompleted,
		CreatedAt:        user.CreatedAt,
	}
}

// UserSummary is the compact user card used in lists.
type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
}

// NewUserSummary converts a user into a list entry.
func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		DisplayName: user.Name(),
		Username:    user.Handle(),
		AvatarURL:   user.AvatarURL,
	}
}

// NewUserSummarySlice converts users into list entries.
func NewUserSummarySlice(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserSummary(user))
	}
	return out
}

// UsernameCheckResponse reports username availability.
type UsernameCheckResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// FollowStatusResponse reports whether the caller follows a user.
type FollowStatusResponse struct {
	UserID      string `json:"user_id"`
	IsFollowing bool   `json:"is_following"`
}

// ReconcileResponse reports how many user rows were corrected.
type ReconcileResponse struct {
	UpdatedUsers int64 `json:"updated_users"`
}
