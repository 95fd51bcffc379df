package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/observability"
	"github.com/noah-isme/bring-api/internal/repository"
)

// Upload kinds.
const (
	UploadKindAvatar  = "avatar"
	UploadKindCover   = "cover"
	UploadKindMessage = "message"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error)
}

// UploadTarget describes who uploads and where the image is stored.
type UploadTarget struct {
	UserID string
	Kind   string
	Folder string
}

// UserImageFolder is the storage folder for a user's avatar and cover images.
func UserImageFolder(userID string) string {
	return "user_images/" + userID
}

// MessageImageFolder is the storage folder for images sent in a conversation.
func MessageImageFolder(conversationID string) string {
	return "messages/" + conversationID
}

// UploadService validates and stores user images.
type UploadService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, target UploadTarget) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/bring-api/internal/service/upload"),
	}
}

func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader, target UploadTarget) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store", trace.WithAttributes(
		attribute.String("upload.kind", target.Kind),
		attribute.String("upload.folder", target.Folder),
		attribute.Int64("upload.max_bytes", s.maxSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	reject := func(err error, reason, status string) (dto.UploadResponse, error) {
		if reason != "" {
			observability.UploadRejected().WithLabelValues(reason).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.UploadResponse{}, err
	}

	if file == nil {
		return reject(fmt.Errorf("%w: file is required", ErrInvalidOperation), "", "validation failed")
	}
	if strings.TrimSpace(target.UserID) == "" || strings.TrimSpace(target.Folder) == "" {
		return reject(fmt.Errorf("%w: upload target is incomplete", ErrInvalidOperation), "", "validation failed")
	}

	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return reject(ErrUploadTooLarge, "size", "payload too large")
	}

	handle, err := file.Open()
	if err != nil {
		return reject(err, "", "open failed")
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return reject(err, "", "read failed")
	}
	if int64(buf.Len()) > s.maxSize {
		return reject(ErrUploadTooLarge, "size", "payload too large")
	}

	detected := mimetype.Detect(buf.Bytes())
	fileType := strings.ToLower(detected.String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	ext, ok := allowedImageTypes[fileType]
	if !ok {
		return reject(ErrUploadTypeNotAllowed, "type", "type not allowed")
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename, ext)
	span.SetAttributes(
		attribute.String("upload.sanitized_name", sanitizedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	url, err := s.storage.Upload(ctx, target.Folder, sanitizedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return reject(fmt.Errorf("store image: %w", err), "storage", "storage failed")
	}

	record := models.UploadRecord{
		UserID:    target.UserID,
		Kind:      target.Kind,
		FileName:  sanitizedName,
		URL:       url,
		MimeType:  fileType,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		return reject(err, "", "persistence failed")
	}

	observability.UploadRequests().WithLabelValues(target.Kind).Inc()
	span.SetStatus(codes.Ok, "stored")

	return dto.UploadResponse{
		URL:       url,
		Kind:      record.Kind,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
		FileName:  record.FileName,
	}, nil
}

// sanitizeFileName keeps a safe lowercase base name and forces the extension of the detected type.
func sanitizeFileName(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("image-%d", time.Now().Unix())
	}
	return base + ext
}
