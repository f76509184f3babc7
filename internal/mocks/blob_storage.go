package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// BlobStorage is a mock implementation of model.BlobStorage.
type BlobStorage struct {
	mock.Mock
}

func (m *BlobStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *BlobStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *BlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
