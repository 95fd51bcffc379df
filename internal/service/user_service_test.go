package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/repository"
)

func TestUserServiceProfileViews(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1", "Ayse", "ayse")
	seedUser(t, db, "u2", "Mehmet", "mehmet")
	follows := repository.NewFollowRepository(db)
	svc := NewUserService(repository.NewUserRepository(db), follows, nil, newValidator(), testLogger())
	ctx := context.Background()

	_, err := follows.Follow(ctx, "u2", "u1")
	require.NoError(t, err)

	_, err = svc.UpdateExtendedProfile(ctx, "u1", dto.ExtendedProfileRequest{Age: "29", Occupation: "Mimar"})
	require.NoError(t, err)

	own, err := svc.GetProfile(ctx, "u1", "u1")
	require.NoError(t, err)
	require.NotNil(t, own.ExtendedProfile)
	require.Equal(t, "Mimar", own.ExtendedProfile.Occupation)
	require.True(t, own.ProfileCompleted)
	require.Nil(t, own.IsFollowing)

	byHandle, err := svc.GetProfile(ctx, "AYSE", "u2")
	require.NoError(t, err)
	require.Equal(t, "u1", byHandle.ID)
	require.Nil(t, byHandle.ExtendedProfile)
	require.NotNil(t, byHandle.IsFollowing)
	require.True(t, *byHandle.IsFollowing)
	require.Equal(t, 1, byHandle.FollowerCount)

	_, err = svc.GetProfile(ctx, "missing", "u2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserServiceUpdateProfileRewritesCopies(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1", "Ayse", "ayse")
	dream := models.Dream{Title: "Flight", Content: "Flying", OwnerID: "u1", OwnerName: "Ayse"}
	require.NoError(t, db.Create(&dream).Error)
	comment := models.Comment{DreamID: dream.ID, Text: "nice", AuthorID: "u1", AuthorName: "Ayse"}
	require.NoError(t, db.Create(&comment).Error)

	svc := NewUserService(repository.NewUserRepository(db), repository.NewFollowRepository(db), nil, newValidator(), testLogger())

	updated, err := svc.UpdateProfile(context.Background(), "u1", dto.ProfileUpdateRequest{DisplayName: "Ayse Kaya", Bio: "Rüya avcısı"})
	require.NoError(t, err)
	require.Equal(t, "Ayse Kaya", updated.DisplayName)
	require.Equal(t, "Rüya avcısı", updated.Bio)

	var storedDream models.Dream
	require.NoError(t, db.Where("id = ?", dream.ID).First(&storedDream).Error)
	require.Equal(t, "Ayse Kaya", storedDream.OwnerName)

	var storedComment models.Comment
	require.NoError(t, db.Where("id = ?", comment.ID).First(&storedComment).Error)
	require.Equal(t, "Ayse Kaya", storedComment.AuthorName)
}

func TestUserServiceSearch(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1", "Ayse", "ayse")
	seedUser(t, db, "u2", "Aylin", "aylin")
	seedUser(t, db, "u3", "Mehmet", "mehmet")
	svc := NewUserService(repository.NewUserRepository(db), repository.NewFollowRepository(db), nil, newValidator(), testLogger())

	results, err := svc.Search(context.Background(), "ay")
	require.NoError(t, err)
	require.Len(t, results, 2)

	empty, err := svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUserServiceRegisteredAccountWinsOverPlaceholder(t *testing.T) {
	db := setupServiceDB(t)
	ayse := seedUser(t, db, uuid.NewString(), "Ayse", "ayse")
	mehmet := seedUser(t, db, uuid.NewString(), "Mehmet", "mehmet")
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	svc := NewUserService(users, follows, nil, newValidator(), testLogger())
	graph := NewSocialGraphService(follows, users, &notificationRecorder{}, testLogger())
	ctx := context.Background()

	// A follow keyed by the handle leaves a placeholder row with id "ayse".
	require.NoError(t, graph.Follow(ctx, mehmet.ID, "ayse"))
	require.Nil(t, reloadUser(t, db, "ayse").Username)

	profile, err := svc.GetProfile(ctx, "ayse", "")
	require.NoError(t, err)
	require.Equal(t, ayse.ID, profile.ID)
	require.Equal(t, "Ayse", profile.DisplayName)

	resolved, err := svc.ResolveID(ctx, "Ayse")
	require.NoError(t, err)
	require.Equal(t, ayse.ID, resolved)

	require.NoError(t, graph.Follow(ctx, mehmet.ID, resolved))
	require.Equal(t, 1, reloadUser(t, db, ayse.ID).FollowerCount)
}

func TestUserServiceResolveID(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1", "Ayse", "ayse")
	seedUser(t, db, "ghost", "", "")
	svc := NewUserService(repository.NewUserRepository(db), repository.NewFollowRepository(db), nil, newValidator(), testLogger())
	ctx := context.Background()

	id, err := svc.ResolveID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", id)

	id, err = svc.ResolveID(ctx, " AYSE ")
	require.NoError(t, err)
	require.Equal(t, "u1", id)

	id, err = svc.ResolveID(ctx, "ghost")
	require.NoError(t, err)
	require.Equal(t, "ghost", id)

	_, err = svc.ResolveID(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ResolveID(ctx, "  ")
	require.ErrorIs(t, err, ErrNotFound)
}
