package dto

import (
	"time"

	"github.com/noah-isme/bring-api/internal/models"
)

// DreamCreateRequest records a new dream.
type DreamCreateRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=255"`
	Content   string `json:"content" validate:"required,min=1,max=20000"`
	IsPrivate bool   `json:"is_private"`
}

// DreamUpdateRequest edits title and content.
type DreamUpdateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required,min=1,max=20000"`
}

// DreamResponse is the serialized dream.
type DreamResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	IsPrivate    bool      `json:"is_private"`
	Owner        OwnerInfo `json:"owner"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	Liked        bool      `json:"liked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OwnerInfo identifies the author of a dream or comment.
type OwnerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// NewDreamResponse converts a dream into its DTO.
func NewDreamResponse(dream models.Dream) DreamResponse {
	return DreamResponse{
		ID:        dream.ID,
		Title:     dream.Title,
		Content:   dream.Content,
		IsPrivate: dream.IsPrivate,
		Owner: OwnerInfo{
			ID:        dream.OwnerID,
			Name:      dream.OwnerName,
			Username:  dream.OwnerUsername,
			AvatarURL: dream.OwnerAvatar,
		},
		LikeCount:    dream.LikeCount,
		CommentCount: dream.CommentCount,
		CreatedAt:    dream.CreatedAt,
		UpdatedAt:    dream.UpdatedAt,
	}
}

// NewDreamResponseSlice converts dreams into DTOs.
func NewDreamResponseSlice(dreams []models.Dream) []DreamResponse {
	out := make([]DreamResponse, 0, len(dreams))
	for _, dream := range dreams {
		out = append(out, NewDreamResponse(dream))
	}
	return out
}

// LikeResponse reports the like state after a toggle.
type LikeResponse struct {
	DreamID   string `json:"dream_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
}

// CommentCreateRequest adds a comment under a dream.
type CommentCreateRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// CommentResponse is the serialized comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	DreamID   string    `json:"dream_id"`
	Text      string    `json:"text"`
	Author    OwnerInfo `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse converts a comment into its DTO.
func NewCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:      comment.ID,
		DreamID: comment.DreamID,
		Text:    comment.Text,
		Author: OwnerInfo{
			ID:        comment.AuthorID,
			Name:      comment.AuthorName,
			AvatarURL: comment.AuthorAvatar,
		},
		CreatedAt: comment.CreatedAt,
	}
}

// NewCommentResponseSlice converts comments into DTOs.
func NewCommentResponseSlice(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment))
	}
	return out
}

// InterpretationRequest asks for an AI interpretation in the given mode.
type InterpretationRequest struct {
	Mode string `json:"mode" validate:"omitempty,max=32"`
}

// InterpretationResponse is returned for every interpretation request.
// Persisted is false when generation failed and the fallback text is shown.
type InterpretationResponse struct {
	ID            string    `json:"id,omitempty"`
	DreamID       string    `json:"dream_id"`
	Text          string    `json:"text"`
	Mode          string    `json:"mode"`
	RequestedMode string    `json:"requested_mode"`
	Persisted     bool      `json:"persisted"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewInterpretationResponse converts a stored AI comment into its DTO.
func NewInterpretationResponse(comment models.AIComment) InterpretationResponse {
	return InterpretationResponse{
		ID:            comment.ID,
		DreamID:       comment.DreamID,
		Text:          comment.Text,
		Mode:          comment.Mode,
		RequestedMode: comment.Mode,
		Persisted:     true,
		CreatedAt:     comment.CreatedAt,
	}
}

// NewInterpretationResponseSlice converts stored AI comments into DTOs.
func NewInterpretationResponseSlice(comments []models.AIComment) []InterpretationResponse {
	out := make([]InterpretationResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewInterpretationResponse(comment))
	}
	return out
}
