package model

import (
	"context"
	"io"
)

// BlobStorage stores profile pictures keyed by user id and extension.
// Upload overwrites on conflict and returns a publicly fetchable URL.
type BlobStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
