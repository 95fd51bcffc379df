package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/bring-api/internal/models"
)

// UserRepository persists user accounts and profiles.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Search(ctx context.Context, prefix string, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateExtendedProfile(ctx context.Context, id string, profile models.ExtendedProfile) error
	UpdateImage(ctx context.Context, id, column, url string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// likeEscaper makes a search prefix match literally; "_" is a legal username character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *userRepository) Search(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	pattern := likeEscaper.Replace(strings.ToLower(strings.TrimSpace(prefix))) + "%"
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where(`username LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("follower_count DESC, id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile saves the editable profile fields and rewrites the copies of
// name and avatar stored on the user's dreams and comments.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"display_name": user.DisplayName,
			"bio":          user.Bio,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var current models.User
		if err := tx.Where("id = ?", user.ID).First(&current).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Dream{}).Where("owner_id = ?", current.ID).Updates(map[string]interface{}{
			"owner_name":     current.Name(),
			"owner_avatar":   current.AvatarURL,
			"owner_username": current.Handle(),
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Comment{}).Where("author_id = ?", current.ID).Updates(map[string]interface{}{
			"author_name":   current.Name(),
			"author_avatar": current.AvatarURL,
		}).Error; err != nil {
			return err
		}

		*user = current
		return nil
	})
}

func (r *userRepository) UpdateExtendedProfile(ctx context.Context, id string, profile models.ExtendedProfile) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"extended_profile":  datatypes.NewJSONType(profile),
		"profile_completed": true,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateImage stores a new avatar or cover URL. Avatar changes are fanned out
// to dreams and comments like the other denormalised fields.
func (r *userRepository) UpdateImage(ctx context.Context, id, column, url string) error {
	if column != "avatar_url" && column != "cover_url" {
		return gorm.ErrInvalidField
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", id).Update(column, url)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if column != "avatar_url" {
			return nil
		}

		if err := tx.Model(&models.Dream{}).Where("owner_id = ?", id).Update("owner_avatar", url).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).Where("author_id = ?", id).Update("author_avatar", url).Error
	})
}

// ensureUsers inserts a minimal row for every id that has none yet.
func ensureUsers(tx *gorm.DB, ids ...string) error {
	for _, id := range ids {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.User{ID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}
