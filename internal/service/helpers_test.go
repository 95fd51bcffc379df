package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, name, username string) models.User {
	t.Helper()
	user := models.User{ID: id, DisplayName: name}
	if username != "" {
		handle := username
		user.Username = &handle
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func reloadUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("id = ?", id).First(&user).Error)
	return user
}

func newValidator() *validator.Validate {
	return validator.New()
}

// notificationRecorder captures published notifications.
type notificationRecorder struct {
	mu   sync.Mutex
	sent []dto.NotificationCreateRequest
	err  error
}

func (r *notificationRecorder) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return dto.NotificationResponse{}, r.err
	}
	r.sent = append(r.sent, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

func (r *notificationRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}
