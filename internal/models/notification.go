package models

import "time"

// Notification represents an in-app notification targeted to a specific user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadRecord stores metadata about uploaded images.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Kind      string    `gorm:"size:32;index" json:"kind"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	MimeType  string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	Checksum  string    `gorm:"size:128;index" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model managed by the service, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Dream{},
		&TrashedDream{},
		&DreamLike{},
		&Comment{},
		&AIComment{},
		&Conversation{},
		&ConversationUnread{},
		&DirectMessage{},
		&Notification{},
		&UploadRecord{},
	}
}
