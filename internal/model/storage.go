package model

import (
	"context"
	"io"
)

// Storage holds product image objects. URL returns the public address an
// uploaded object is served from.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}
