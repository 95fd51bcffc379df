package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dream is a journal entry. Owner fields are copied from the author's profile at write time.
type Dream struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	OwnerID       string    `gorm:"size:64;index;not null" json:"owner_id"`
	OwnerName     string    `gorm:"size:128" json:"owner_name"`
	OwnerAvatar   string    `gorm:"size:512" json:"owner_avatar"`
	OwnerUsername string    `gorm:"size:16" json:"owner_username"`
	IsPrivate     bool      `gorm:"index;not null;default:false" json:"is_private"`
	LikeCount     int       `gorm:"not null;default:0" json:"like_count"`
	CommentCount  int       `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate assigns an identifier when the caller did not supply one.
func (d *Dream) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// VisibleTo reports whether the viewer may read the dream.
func (d Dream) VisibleTo(viewerID string) bool {
	return !d.IsPrivate || d.OwnerID == viewerID
}

// TrashedDream is the archived copy written by the soft delete before the live row is removed.
type TrashedDream struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Title         string    `gorm:"size:255" json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	OwnerID       string    `gorm:"size:64;index" json:"owner_id"`
	OwnerName     string    `gorm:"size:128" json:"owner_name"`
	OwnerAvatar   string    `gorm:"size:512" json:"owner_avatar"`
	OwnerUsername string    `gorm:"size:16" json:"owner_username"`
	IsPrivate     bool      `json:"is_private"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	DeletedAt     time.Time `gorm:"index;not null" json:"deleted_at"`
}

// DreamLike records that a user liked a dream.
type DreamLike struct {
	DreamID   string    `gorm:"primaryKey;size:64" json:"dream_id"`
	UserID    string    `gorm:"primaryKey;size:64;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply written by a user under a dream.
type Comment struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	DreamID      string    `gorm:"size:64;index;not null" json:"dream_id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	AuthorID     string    `gorm:"size:64;index;not null" json:"author_id"`
	AuthorName   string    `gorm:"size:128" json:"author_name"`
	AuthorAvatar string    `gorm:"size:512" json:"author_avatar"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns an identifier when the caller did not supply one.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// AIComment stores one generated interpretation per (dream, user, mode).
type AIComment struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	DreamID   string    `gorm:"size:64;not null;uniqueIndex:ux_ai_comment_mode,priority:1" json:"dream_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:ux_ai_comment_mode,priority:2" json:"user_id"`
	Mode      string    `gorm:"size:32;not null;uniqueIndex:ux_ai_comment_mode,priority:3" json:"mode"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the historic collection name.
func (AIComment) TableName() string { return "ai_comments" }

// BeforeCreate assigns an identifier when the caller did not supply one.
func (a *AIComment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
