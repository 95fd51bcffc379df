package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/models"
)

func strPtr(value string) *string { return &value }

func TestUserRepositoryUpdateProfileFansOutDenormalisedFields(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	dreams := NewDreamRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	owner := models.User{ID: "u1", DisplayName: "Eski", Username: strPtr("eski")}
	require.NoError(t, users.Create(ctx, &owner))
	dream := models.Dream{ID: "d1", Title: "t", Content: "c", OwnerID: "u1", OwnerName: "Eski"}
	require.NoError(t, dreams.Create(ctx, &dream))
	require.NoError(t, comments.Create(ctx, &models.Comment{DreamID: "d1", AuthorID: "u1", AuthorName: "Eski", Text: "hi"}))

	update := models.User{ID: "u1", DisplayName: "Yeni", Bio: "rüyacı"}
	require.NoError(t, users.UpdateProfile(ctx, &update))
	require.Equal(t, "eski", update.Handle())

	stored, err := dreams.FindByID(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "Yeni", stored.OwnerName)
	require.Equal(t, "eski", stored.OwnerUsername)
	require.Equal(t, 1, stored.CommentCount)

	list, err := comments.ListByDream(ctx, "d1", 0, 0)
	require.NoError(t, err)
	require.Equal(t, "Yeni", list[0].AuthorName)

	require.NoError(t, users.UpdateImage(ctx, "u1", "avatar_url", "https://img/a.png"))
	stored, err = dreams.FindByID(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "https://img/a.png", stored.OwnerAvatar)
}

func TestUserRepositoryUsernameLookupAndSearch(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", DisplayName: "Deniz Kaya", Username: strPtr("deniz")}))
	require.NoError(t, users.Create(ctx, &models.User{ID: "u2", DisplayName: "Derya", Username: strPtr("derya_1")}))
	require.NoError(t, users.Create(ctx, &models.User{ID: "u3", DisplayName: "Ali"}))

	exists, err := users.UsernameExists(ctx, "DENIZ")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = users.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, exists)

	found, err := users.Search(ctx, "de", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = users.Search(ctx, "ali", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = users.Search(ctx, "der_", 0)
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = users.Search(ctx, "derya_", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "u2", found[0].ID)

	found, err = users.Search(ctx, "%", 0)
	require.NoError(t, err)
	require.Empty(t, found)

	require.Error(t, users.Create(ctx, &models.User{ID: "u4", Username: strPtr("deniz")}))
}

func TestUserRepositoryExtendedProfileMarksCompletion(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{ID: "u1"}))
	require.NoError(t, users.UpdateExtendedProfile(ctx, "u1", models.ExtendedProfile{Age: "29", Occupation: "mimar"}))

	stored, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, stored.ProfileCompleted)
	require.Equal(t, "mimar", stored.ExtendedProfile.Data().Occupation)
}
