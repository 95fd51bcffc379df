package dto

import (
	"time"

	"github.com/noah-isme/bring-api/internal/models"
)

// ChatStartRequest opens (or reuses) the direct chat with another user.
type ChatStartRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
}

// ChatStartResponse returns the conversation identifier.
type ChatStartResponse struct {
	ConversationID string `json:"conversation_id"`
}

// ChatSendRequest is the payload to post a text message, over HTTP or websocket.
// Image messages are uploaded as multipart and carry no client-supplied URL.
type ChatSendRequest struct {
	ConversationID string `json:"conversation_id" validate:"omitempty,max=140"`
	Text           string `json:"text" validate:"max=4000"`
}

// ChatHistoryQuery represents query filters for retrieving chat history.
type ChatHistoryQuery struct {
	ConversationID string     `validate:"required,max=140"`
	Before         *time.Time `query:"before"`
	Limit          int        `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ChatMessageResponse is the serialized representation of a direct message.
type ChatMessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	ImageURL       string    `json:"image_url,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewChatMessageResponse converts a model into a DTO.
func NewChatMessageResponse(message models.DirectMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Text:           message.Text,
		ImageURL:       message.ImageURL,
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt,
	}
}

// NewChatMessageResponseSlice converts a slice of models into DTOs.
func NewChatMessageResponseSlice(messages []models.DirectMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewChatMessageResponse(message))
	}
	return out
}

// ParticipantResponse describes the other member of a conversation.
type ParticipantResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// ConversationResponse is one entry of the caller's conversation list.
type ConversationResponse struct {
	ID                  string              `json:"id"`
	Participants        []string            `json:"participants"`
	OtherUser           ParticipantResponse `json:"other_user"`
	LastMessage         *string             `json:"last_message"`
	LastMessageAt       *time.Time          `json:"last_message_at"`
	LastMessageSenderID *string             `json:"last_message_sender_id"`
	UnreadCount         int                 `json:"unread_count"`
	CreatedAt           time.Time           `json:"created_at"`
}

// NotificationCreateRequest describes the payload to create a notification.
type NotificationCreateRequest struct {
	UserID  string `json:"user_id" validate:"required,max=64"`
	Type    string `json:"type" validate:"required,max=64"`
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

// MarkAllReadResponse reports how many notifications were updated.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// UploadResponse describes the stored image returned to the client.
type UploadResponse struct {
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
	Checksum  string `json:"checksum"`
	FileName  string `json:"file_name"`
}
