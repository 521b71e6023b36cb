package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get and Copy when the source object does
	// not exist. It is terminal and never retried.
	ErrNotFound = errors.New("object not found")
)

// ObjectStore is the raw backend interface. Implementations perform a
// single attempt per call; retries belong to the Gateway.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Copy(ctx context.Context, srcPath, dstPath string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
