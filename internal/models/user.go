package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultDisplayName is shown wherever a user has not chosen a name yet.
const DefaultDisplayName = "Kullanıcı"

// ExtendedProfile holds optional self-description used to personalise AI interpretations.
type ExtendedProfile struct {
	Gender            string `json:"gender,omitempty"`
	Age               string `json:"age,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	Interests         string `json:"interests,omitempty"`
	DreamPreferences  string `json:"dream_preferences,omitempty"`
	PersonalityTraits string `json:"personality_traits,omitempty"`
}

// User is the account and public profile of a dreamer.
//
// Username is nil for placeholder rows created by the social graph when an
// identity follows or is followed before completing registration.
type User struct {
	ID               string                              `gorm:"primaryKey;size:64" json:"id"`
	Email            *string                             `gorm:"size:255;uniqueIndex" json:"-"`
	PasswordHash     string                              `gorm:"size:255" json:"-"`
	DisplayName      string                              `gorm:"size:128" json:"display_name"`
	Username         *string                             `gorm:"size:16;uniqueIndex" json:"username"`
	Bio              string                              `gorm:"type:text" json:"bio"`
	AvatarURL        string                              `gorm:"size:512" json:"avatar_url"`
	CoverURL         string                              `gorm:"size:512" json:"cover_url"`
	FollowerCount    int                                 `gorm:"not null;default:0" json:"follower_count"`
	FollowingCount   int                                 `gorm:"not null;default:0" json:"following_count"`
	DreamCount       int                                 `gorm:"not null;default:0" json:"dream_count"`
	ProfileCompleted bool                                `gorm:"not null;default:false" json:"profile_completed"`
	ExtendedProfile  datatypes.JSONType[ExtendedProfile] `json:"extended_profile"`
	Role             string                              `gorm:"size:32;not null;default:user" json:"-"`
	CreatedAt        time.Time                           `json:"created_at"`
	UpdatedAt        time.Time                           `json:"updated_at"`
}

// BeforeCreate assigns an identifier when the caller did not supply one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Name returns the display name or the default placeholder.
func (u User) Name() string {
	if u.DisplayName == "" {
		return DefaultDisplayName
	}
	return u.DisplayName
}

// Handle returns the username or an empty string for placeholder rows.
func (u User) Handle() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// Follow is a directed edge: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID string    `gorm:"primaryKey;size:64" json:"follower_id"`
	FolloweeID string    `gorm:"primaryKey;size:64;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName keeps the edge table name explicit.
func (Follow) TableName() string { return "user_follows" }
