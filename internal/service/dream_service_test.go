package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/repository"
)

func newDreamFixture(t *testing.T, cache *redis.Client) (*gorm.DB, DreamService) {
	t.Helper()
	db := setupServiceDB(t)
	seedUser(t, db, "u1", "Ayse", "ayse")
	seedUser(t, db, "u2", "Mehmet", "mehmet")
	svc := NewDreamService(repository.NewDreamRepository(db), repository.NewUserRepository(db), cache, time.Minute, newValidator(), testLogger())
	return db, svc
}

func TestDreamSafeDeleteMovesDreamToTrash(t *testing.T) {
	db, svc := newDreamFixture(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "Flight", Content: "I was flying over mountains"})
	require.NoError(t, err)
	require.Equal(t, 1, reloadUser(t, db, "u1").DreamCount)

	require.NoError(t, svc.SafeDelete(ctx, created.ID, "u1"))

	var trashed models.TrashedDream
	require.NoError(t, db.Where("id = ?", created.ID).First(&trashed).Error)
	require.Equal(t, "Flight", trashed.Title)
	require.Equal(t, "I was flying over mountains", trashed.Content)
	require.Equal(t, "u1", trashed.OwnerID)
	require.False(t, trashed.DeletedAt.IsZero())

	_, err = svc.Get(ctx, created.ID, "u1")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, reloadUser(t, db, "u1").DreamCount)
}

func TestDreamSafeDeleteMissingDream(t *testing.T) {
	db, svc := newDreamFixture(t, nil)

	err := svc.SafeDelete(context.Background(), "nonexistent-id", "")
	require.ErrorIs(t, err, ErrNotFound)

	var total int64
	require.NoError(t, db.Model(&models.TrashedDream{}).Count(&total).Error)
	require.Zero(t, total)
}

func TestDreamSafeDeleteRequiresOwner(t *testing.T) {
	db, svc := newDreamFixture(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "Sea", Content: "Waves everywhere"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.SafeDelete(ctx, created.ID, "u2"), ErrForbidden)

	var live models.Dream
	require.NoError(t, db.Where("id = ?", created.ID).First(&live).Error)

	// System calls carry no actor.
	require.NoError(t, svc.SafeDelete(ctx, created.ID, ""))
}

func TestDreamPrivateDreamsHiddenFromOthers(t *testing.T) {
	_, svc := newDreamFixture(t, nil)
	ctx := context.Background()

	private, err := svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "Secret", Content: "Only mine", IsPrivate: true})
	require.NoError(t, err)

	_, err = svc.Get(ctx, private.ID, "u2")
	require.ErrorIs(t, err, ErrNotFound)

	own, err := svc.Get(ctx, private.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, "Secret", own.Title)

	visible, err := svc.ListByOwner(ctx, "u1", "u2", 0, 0)
	require.NoError(t, err)
	require.Empty(t, visible)

	mine, err := svc.ListByOwner(ctx, "u1", "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestDreamUpdateOwnerOnly(t *testing.T) {
	_, svc := newDreamFixture(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "Old", Content: "Text"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, "u2", dto.DreamUpdateRequest{Title: "New", Content: "Text"})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, created.ID, "u1", dto.DreamUpdateRequest{Title: "New", Content: "Changed"})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, "Changed", updated.Content)
}

func TestDreamLikeIsIdempotent(t *testing.T) {
	_, svc := newDreamFixture(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "Cat", Content: "A talking cat"})
	require.NoError(t, err)

	liked, err := svc.Like(ctx, created.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, 1, liked.LikeCount)

	liked, err = svc.Like(ctx, created.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, 1, liked.LikeCount)

	view, err := svc.Get(ctx, created.ID, "u2")
	require.NoError(t, err)
	require.True(t, view.Liked)

	unliked, err := svc.Unlike(ctx, created.ID, "u2")
	require.NoError(t, err)
	require.False(t, unliked.Liked)
	require.Equal(t, 0, unliked.LikeCount)
}

func TestDreamPublicFeedUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	db, svc := newDreamFixture(t, redisClient)
	ctx := context.Background()

	_, err = svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "One", Content: "First dream"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", dto.DreamCreateRequest{Title: "Hidden", Content: "Private", IsPrivate: true})
	require.NoError(t, err)

	feed, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.True(t, mr.Exists(publicFeedKey))

	// Rows written behind the service are not visible until the cache is invalidated.
	require.NoError(t, db.Create(&models.Dream{Title: "Direct", Content: "Inserted", OwnerID: "u2"}).Error)
	cached, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	_, err = svc.Create(ctx, "u2", dto.DreamCreateRequest{Title: "Two", Content: "Second dream"})
	require.NoError(t, err)
	require.False(t, mr.Exists(publicFeedKey))

	fresh, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
}
