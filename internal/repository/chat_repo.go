package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/bring-api/internal/models"
)

// ChatRepository persists direct conversations, their messages and unread counters.
type ChatRepository interface {
	FindConversation(ctx context.Context, id string) (models.Conversation, error)
	ListByParticipant(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	SaveMessage(ctx context.Context, message *models.DirectMessage, recipientID string) error
	ListMessages(ctx context.Context, conversationID string, before time.Time, limit int) ([]models.DirectMessage, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error)
	ResetUnread(ctx context.Context, conversationID, userID string) error
	UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindConversation(ctx context.Context, id string) (models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error; err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

// ListByParticipant returns the conversations userID belongs to, most recently active first.
// A non-positive limit returns every conversation.
func (r *chatRepository) ListByParticipant(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	query := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var conversations []models.Conversation
	if err := query.Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation inserts the conversation unless a row with the same id exists.
func (r *chatRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(conversation).Error
}

// SaveMessage stores the message, refreshes the conversation summary and
// increments the recipient's unread counter.
func (r *chatRepository) SaveMessage(ctx context.Context, message *models.DirectMessage, recipientID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		preview := message.Preview()
		result := tx.Model(&models.Conversation{}).Where("id = ?", message.ConversationID).Updates(map[string]interface{}{
			"last_message_text":      preview,
			"last_message_at":        message.CreatedAt,
			"last_message_sender_id": message.SenderID,
			"updated_at":             message.CreatedAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		unread := models.ConversationUnread{
			ConversationID: message.ConversationID,
			UserID:         recipientID,
			UnreadCount:    1,
			UpdatedAt:      message.CreatedAt,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"unread_count": gorm.Expr("conversation_unreads.unread_count + 1"),
				"updated_at":   message.CreatedAt,
			}),
		}).Create(&unread).Error
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID string, before time.Time, limit int) ([]models.DirectMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.DirectMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to chronological order ascending for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkMessagesRead flags every unread message sent to readerID in the conversation.
func (r *chatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// ResetUnread sets the user's unread counter to zero, creating it when missing.
func (r *chatRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	now := time.Now().UTC()
	unread := models.ConversationUnread{ConversationID: conversationID, UserID: userID, UpdatedAt: now}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"unread_count": 0,
			"updated_at":   now,
		}),
	}).Create(&unread).Error
}

func (r *chatRepository) UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	var rows []models.ConversationUnread
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND conversation_id IN ?", userID, conversationIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ConversationID] = row.UnreadCount
	}
	return counts, nil
}
