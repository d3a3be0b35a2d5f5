// Package storage is a small filesystem abstraction used for sandbox email
// previews. Two drivers are available: "local" and "s3" (AWS S3, MinIO, R2).
package storage

import (
	"context"
	"errors"
	"fmt"

	"kabro/internal/config"
)

// ErrNotExist is returned by Get when nothing is stored at path.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, creating parents as needed.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// URL returns the public URL for path.
	URL(path string) string
}

// Open builds the disk selected by PREVIEW_DISK. Local previews are served
// by the API itself under /api/previews.
func Open(cfg config.PreviewConfig, apiURL string) (Disk, error) {
	switch cfg.Disk {
	case "", "local":
		return NewLocal(cfg.Dir, apiURL+"/api/previews")
	case "s3":
		return NewS3(context.Background(), S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			BaseURL:  cfg.S3URL,
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", cfg.Disk)
	}
}
