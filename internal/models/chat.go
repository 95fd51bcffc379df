package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImagePlaceholder summarises an image-only message in conversation previews.
const ImagePlaceholder = "[Görsel]"

// ParticipantDetail is the display data copied onto a conversation when it is created.
type ParticipantDetail struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// Conversation is a direct chat between exactly two users.
type Conversation struct {
	ID                  string                                         `gorm:"primaryKey;size:140" json:"id"`
	ParticipantA        string                                         `gorm:"size:64;index;not null" json:"participant_a"`
	ParticipantB        string                                         `gorm:"size:64;index;not null" json:"participant_b"`
	ParticipantDetails  datatypes.JSONType[map[string]ParticipantDetail] `json:"participant_details"`
	LastMessageText     *string                                        `gorm:"type:text" json:"last_message_text"`
	LastMessageAt       *time.Time                                     `gorm:"index" json:"last_message_at"`
	LastMessageSenderID *string                                        `gorm:"size:64" json:"last_message_sender_id"`
	CreatedAt           time.Time                                      `json:"created_at"`
	UpdatedAt           time.Time                                      `json:"updated_at"`
}

// Participants returns both member ids in creation order.
func (c Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether userID is a member of the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.ParticipantA == userID || c.ParticipantB == userID)
}

// Other returns the member that is not userID.
func (c Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// ConversationID derives the identifier of the conversation between two users.
// The pair is sorted so both members derive the same id, and the first id is
// length-prefixed before hashing so distinct pairs never share an input.
func ConversationID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	sum := sha256.Sum256([]byte(strconv.Itoa(len(pair[0])) + ":" + pair[0] + pair[1]))
	return hex.EncodeToString(sum[:])
}

// ConversationUnread tracks how many messages a member has not read yet.
type ConversationUnread struct {
	ConversationID string    `gorm:"primaryKey;size:140" json:"conversation_id"`
	UserID         string    `gorm:"primaryKey;size:64;index" json:"user_id"`
	UnreadCount    int       `gorm:"not null;default:0" json:"unread_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DirectMessage is a single message inside a conversation.
type DirectMessage struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	ConversationID string    `gorm:"size:140;index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"size:64;index;not null" json:"sender_id"`
	Text           string    `gorm:"type:text" json:"text"`
	ImageURL       string    `gorm:"size:512" json:"image_url"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns an identifier when the caller did not supply one.
func (m *DirectMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Preview returns the text shown in conversation lists for this message.
func (m DirectMessage) Preview() string {
	if strings.TrimSpace(m.Text) == "" && m.ImageURL != "" {
		return ImagePlaceholder
	}
	return m.Text
}
