package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/bring-api/internal/models"
)

// FollowRepository maintains follow edges together with the denormalised counters.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, limit int) ([]models.User, error)
	ListFollowing(ctx context.Context, userID string, limit int) ([]models.User, error)
	Reconcile(ctx context.Context) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository constructs a GORM-backed follow repository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow inserts the edge and bumps both counters in one transaction.
// The returned flag is false when the edge already existed; counters are then left alone.
func (r *followRepository) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUsers(tx, followerID, followeeID); err != nil {
			return err
		}

		edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		if err := tx.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + ?", 1)).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + ?", 1)).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Unfollow removes the edge and decrements both counters, never below zero.
func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUsers(tx, followerID, followeeID); err != nil {
			return err
		}

		result := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		if err := tx.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", decrementExpr("follower_count")).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", decrementExpr("following_count")).Error
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var edge models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string, limit int) ([]models.User, error) {
	return r.listJoined(ctx, "user_follows.follower_id", "user_follows.followee_id", userID, limit)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID string, limit int) ([]models.User, error) {
	return r.listJoined(ctx, "user_follows.followee_id", "user_follows.follower_id", userID, limit)
}

func (r *followRepository) listJoined(ctx context.Context, joinColumn, filterColumn, userID string, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var users []models.User
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN user_follows ON users.id = "+joinColumn).
		Where(filterColumn+" = ?", userID).
		Order("user_follows.created_at DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Reconcile recomputes every user's follower, following and dream counters
// from the edge and dream tables. It returns the number of corrected rows.
func (r *followRepository) Reconcile(ctx context.Context) (int64, error) {
	const followers = "(SELECT COUNT(*) FROM user_follows WHERE user_follows.followee_id = users.id)"
	const following = "(SELECT COUNT(*) FROM user_follows WHERE user_follows.follower_id = users.id)"
	const dreams = "(SELECT COUNT(*) FROM dreams WHERE dreams.owner_id = users.id)"

	result := r.db.WithContext(ctx).Exec(
		"UPDATE users SET follower_count = "+followers+
			", following_count = "+following+
			", dream_count = "+dreams+
			" WHERE follower_count <> "+followers+
			" OR following_count <> "+following+
			" OR dream_count <> "+dreams,
	)
	return result.RowsAffected, result.Error
}

func decrementExpr(column string) clause.Expr {
	return gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
}
