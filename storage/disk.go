// Package storage abstracts where uploaded objects (item images, request
// attachments) live. Two drivers: local filesystem and S3-compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"io"

	"protolab/config"
)

// Disk is the object storage driver interface.
type Disk interface {
	// Put writes the object at key, creating parents as needed.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Open returns the object's content. Caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for key, or "" if the disk has none.
	URL(key string) string
}

// Connect picks the driver from config.
func Connect(cfg config.Config) (Disk, error) {
	switch cfg.StorageDriver {
	case "local":
		return NewLocal(cfg.StorageRoot, cfg.StorageURL), nil
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q (supported: local, s3)", cfg.StorageDriver)
	}
}
