package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/models"
)

// CommentRepository persists user comments on dreams.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByDream(ctx context.Context, dreamID string, limit, offset int) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs a GORM-backed comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Dream{}).
			Where("id = ?", comment.DreamID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).
			Error
	})
}

func (r *commentRepository) ListByDream(ctx context.Context, dreamID string, limit, offset int) ([]models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("dream_id = ?", dreamID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return comments, nil
}
