package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/breaker"
	"github.com/artisans-echo/artwork-service/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Accepted upload types, keyed by sniffed content type.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadService stores artwork images and hands back their public URL
type UploadService struct {
	store   storage.ImageStore
	breaker *gobreaker.CircuitBreaker
	maxSize int64
	logger  *logrus.Logger
}

// NewUploadService creates an upload service. A nil store disables uploads.
func NewUploadService(store storage.ImageStore, breaker *gobreaker.CircuitBreaker, maxSize int64, logger *logrus.Logger) *UploadService {
	return &UploadService{
		store:   store,
		breaker: breaker,
		maxSize: maxSize,
		logger:  logger,
	}
}

func (s *UploadService) Enabled() bool {
	return s.store != nil
}

// Upload checks the image type from its leading bytes and stores it under a
// random name.
func (s *UploadService) Upload(ctx context.Context, identity string, reader io.Reader, size int64) (string, error) {
	if s.store == nil {
		return "", apperr.StoreUnavailable("image uploads are not configured")
	}
	if size <= 0 {
		return "", apperr.Validation("image is empty")
	}
	if size > s.maxSize {
		return "", apperr.Validation("image exceeds the maximum upload size")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", apperr.Validation("image could not be read")
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", apperr.Validation("image must be a JPEG, PNG, GIF or WebP file")
	}

	objectName := uuid.New().String() + ext
	body := io.MultiReader(bytes.NewReader(head), reader)

	var url string
	_, err = s.breaker.Execute(func() (interface{}, error) {
		var uploadErr error
		url, uploadErr = s.store.Upload(ctx, objectName, body, size, contentType)
		return url, uploadErr
	})
	if err != nil {
		if breaker.IsOpen(err) {
			return "", &apperr.Error{Kind: apperr.KindStoreUnavailable, Message: "image storage is temporarily unavailable", Err: err}
		}
		return "", apperr.Internal("failed to upload image", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_email":   identity,
		"object_name":  objectName,
		"content_type": contentType,
		"size":         size,
	}).Info("Image uploaded")
	return url, nil
}
