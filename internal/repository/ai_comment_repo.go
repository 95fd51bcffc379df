package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/models"
)

// AICommentRepository persists generated dream interpretations.
type AICommentRepository interface {
	ListByDreamAndUser(ctx context.Context, dreamID, userID string) ([]models.AIComment, error)
	CountModes(ctx context.Context, dreamID, userID string) (int64, error)
	HasMode(ctx context.Context, dreamID, userID, mode string) (bool, error)
	Replace(ctx context.Context, comment *models.AIComment) error
}

type aiCommentRepository struct {
	db *gorm.DB
}

// NewAICommentRepository constructs a GORM-backed repository for AI comments.
func NewAICommentRepository(db *gorm.DB) AICommentRepository {
	return &aiCommentRepository{db: db}
}

func (r *aiCommentRepository) ListByDreamAndUser(ctx context.Context, dreamID, userID string) ([]models.AIComment, error) {
	var comments []models.AIComment
	if err := r.db.WithContext(ctx).
		Where("dream_id = ? AND user_id = ?", dreamID, userID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *aiCommentRepository) CountModes(ctx context.Context, dreamID, userID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.AIComment{}).
		Where("dream_id = ? AND user_id = ?", dreamID, userID).
		Distinct("mode").
		Count(&total).Error
	return total, err
}

func (r *aiCommentRepository) HasMode(ctx context.Context, dreamID, userID, mode string) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.AIComment{}).
		Where("dream_id = ? AND user_id = ? AND mode = ?", dreamID, userID, mode).
		Count(&total).Error
	return total > 0, err
}

// Replace drops any stored comment for the same (dream, user, mode) and inserts the new one.
func (r *aiCommentRepository) Replace(ctx context.Context, comment *models.AIComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("dream_id = ? AND user_id = ? AND mode = ?", comment.DreamID, comment.UserID, comment.Mode).
			Delete(&models.AIComment{}).Error; err != nil {
			return err
		}

		return tx.Create(comment).Error
	})
}
