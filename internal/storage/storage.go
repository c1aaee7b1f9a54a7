// Package storage holds the image upload backends.
package storage

import (
	"context"
	"io"
)

// ImageStore persists an uploaded image and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
}
