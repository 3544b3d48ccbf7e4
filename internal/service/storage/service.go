package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploader abstracts the object store for tests
type Uploader interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// Service implements attachment storage on top of an object store
type Service struct {
	store Uploader
}

// NewService creates a new storage service
func NewService(store Uploader) *Service {
	return &Service{store: store}
}

// UploadImage stores an image under a date-partitioned random name and
// returns its public URL
func (s *Service) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}

	objectName := fmt.Sprintf("images/%s/%s%s",
		time.Now().UTC().Format("2006/01/02"), uuid.New().String(), ext)

	return s.store.Put(ctx, objectName, data, contentType)
}
