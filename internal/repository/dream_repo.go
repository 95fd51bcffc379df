package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/bring-api/internal/models"
)

// DreamRepository persists dreams, their likes and their trash copies.
type DreamRepository interface {
	Create(ctx context.Context, dream *models.Dream) error
	FindByID(ctx context.Context, id string) (models.Dream, error)
	Update(ctx context.Context, dream *models.Dream) error
	ListByOwner(ctx context.Context, ownerID string, includePrivate bool, limit, offset int) ([]models.Dream, error)
	ListPublic(ctx context.Context, limit int) ([]models.Dream, error)
	SoftDelete(ctx context.Context, dream models.Dream, deletedAt time.Time) error
	FindTrashed(ctx context.Context, id string) (models.TrashedDream, error)
	Like(ctx context.Context, dreamID, userID string) (bool, error)
	Unlike(ctx context.Context, dreamID, userID string) (bool, error)
	HasLiked(ctx context.Context, dreamID, userID string) (bool, error)
}

type dreamRepository struct {
	db *gorm.DB
}

// NewDreamRepository constructs a GORM-backed dream repository.
func NewDreamRepository(db *gorm.DB) DreamRepository {
	return &dreamRepository{db: db}
}

func (r *dreamRepository) Create(ctx context.Context, dream *models.Dream) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dream).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", dream.OwnerID).
			UpdateColumn("dream_count", gorm.Expr("dream_count + ?", 1)).Error
	})
}

func (r *dreamRepository) FindByID(ctx context.Context, id string) (models.Dream, error) {
	var dream models.Dream
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dream).Error; err != nil {
		return models.Dream{}, err
	}
	return dream, nil
}

func (r *dreamRepository) Update(ctx context.Context, dream *models.Dream) error {
	result := r.db.WithContext(ctx).Model(&models.Dream{}).Where("id = ?", dream.ID).Updates(map[string]interface{}{
		"title":      dream.Title,
		"content":    dream.Content,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *dreamRepository) ListByOwner(ctx context.Context, ownerID string, includePrivate bool, limit, offset int) ([]models.Dream, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if !includePrivate {
		query = query.Where("is_private = ?", false)
	}

	var dreams []models.Dream
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&dreams).Error; err != nil {
		return nil, err
	}
	return dreams, nil
}

func (r *dreamRepository) ListPublic(ctx context.Context, limit int) ([]models.Dream, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var dreams []models.Dream
	if err := r.db.WithContext(ctx).
		Where("is_private = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&dreams).Error; err != nil {
		return nil, err
	}
	return dreams, nil
}

// SoftDelete archives the dream into the trash table and removes the live row.
// Both writes share one transaction so the live row survives any failure of the copy.
func (r *dreamRepository) SoftDelete(ctx context.Context, dream models.Dream, deletedAt time.Time) error {
	var trashed models.TrashedDream
	if err := copier.Copy(&trashed, &dream); err != nil {
		return err
	}
	trashed.DeletedAt = deletedAt

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&trashed).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", dream.ID).Delete(&models.Dream{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.User{}).Where("id = ?", dream.OwnerID).
			UpdateColumn("dream_count", decrementExpr("dream_count")).Error
	})
}

func (r *dreamRepository) FindTrashed(ctx context.Context, id string) (models.TrashedDream, error) {
	var trashed models.TrashedDream
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trashed).Error; err != nil {
		return models.TrashedDream{}, err
	}
	return trashed, nil
}

func (r *dreamRepository) Like(ctx context.Context, dreamID, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DreamLike{DreamID: dreamID, UserID: userID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		liked = true

		return tx.Model(&models.Dream{}).Where("id = ?", dreamID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error
	})
	return liked, err
}

func (r *dreamRepository) Unlike(ctx context.Context, dreamID, userID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("dream_id = ? AND user_id = ?", dreamID, userID).Delete(&models.DreamLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		return tx.Model(&models.Dream{}).Where("id = ?", dreamID).
			UpdateColumn("like_count", decrementExpr("like_count")).Error
	})
	return removed, err
}

func (r *dreamRepository) HasLiked(ctx context.Context, dreamID, userID string) (bool, error) {
	var like models.DreamLike
	err := r.db.WithContext(ctx).Where("dream_id = ? AND user_id = ?", dreamID, userID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
