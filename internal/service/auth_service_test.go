package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/repository"
)

const testSecret = "test-secret"

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	db := setupServiceDB(t)
	return NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour, newValidator(), testLogger())
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, dto.RegisterRequest{
		Email:       "Ayse@Example.com",
		Password:    "secret123",
		DisplayName: "Ayse",
		Username:    "Ayse_01",
	})
	require.NoError(t, err)
	require.Equal(t, "ayse_01", registered.User.Username)
	require.Zero(t, registered.User.FollowerCount)

	token, err := jwt.Parse(registered.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, registered.User.ID, claims["sub"])
	require.Equal(t, "user", claims["role"])

	loggedIn, err := svc.Login(ctx, dto.LoginRequest{Email: "ayse@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ayse@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRegisterRejectsTakenAndInvalidUsernames(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Email: "a@example.com", Password: "secret123", DisplayName: "A", Username: "dreamer"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "b@example.com", Password: "secret123", DisplayName: "B", Username: "DREAMER"})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "a@example.com", Password: "secret123", DisplayName: "C", Username: "other"})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "c@example.com", Password: "secret123", DisplayName: "C", Username: "bad-name"})
	require.ErrorIs(t, err, ErrInvalidUsername)
}

func TestAuthCheckUsername(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.CheckUsername(ctx, " Night_Owl ")
	require.NoError(t, err)
	require.True(t, result.Available)
	require.Equal(t, "night_owl", result.Username)

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "owl@example.com", Password: "secret123", DisplayName: "Owl", Username: "night_owl"})
	require.NoError(t, err)

	result, err = svc.CheckUsername(ctx, "night_owl")
	require.NoError(t, err)
	require.False(t, result.Available)

	for _, name := range []string{"ab", "this_is_way_too_long", "şeker", "with space"} {
		_, err := svc.CheckUsername(ctx, name)
		require.ErrorIs(t, err, ErrInvalidUsername, name)
	}
}
