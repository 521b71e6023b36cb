package storage

import (
	"context"
	"errors"
	"fmt"

	"mediaforge/pkg/logger"
	"mediaforge/pkg/retry"

	mf_errors "mediaforge/pkg/errors"
)

// Gateway wraps an ObjectStore with the injected retry policy. Mutating
// calls are retried with exponential backoff and surface
// ErrStorageUnavailable once attempts are exhausted. Deletes are
// best-effort: failures are logged and swallowed so cleanup can never
// fail an operation that already succeeded.
type Gateway struct {
	store  ObjectStore
	policy retry.Policy
	logger *logger.Logger
}

func NewGateway(store ObjectStore, policy retry.Policy, l *logger.Logger) *Gateway {
	return &Gateway{store: store, policy: policy, logger: l}
}

func (g *Gateway) Put(ctx context.Context, path string, data []byte, contentType string) error {
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		return g.store.Put(ctx, path, data, contentType)
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", mf_errors.ErrStorageUnavailable, path, err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		data, innerErr = g.store.Get(ctx, path)
		if errors.Is(innerErr, ErrNotFound) {
			// Missing objects are terminal, retrying will not create them.
			return nil
		}
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", mf_errors.ErrStorageUnavailable, path, err)
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// Delete is best-effort. It reports success even when the backend fails;
// the failure is logged for later manual cleanup.
func (g *Gateway) Delete(ctx context.Context, path string) {
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		return g.store.Delete(ctx, path)
	})
	if err != nil && g.logger != nil {
		g.logger.Warnf("best-effort delete failed for %s: %v", path, err)
	}
}

func (g *Gateway) Copy(ctx context.Context, srcPath, dstPath string) error {
	var notFound bool
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		innerErr := g.store.Copy(ctx, srcPath, dstPath)
		if errors.Is(innerErr, ErrNotFound) {
			notFound = true
			return nil
		}
		return innerErr
	})
	if err != nil {
		return fmt.Errorf("%w: copy %s -> %s: %v", mf_errors.ErrStorageUnavailable, srcPath, dstPath, err)
	}
	if notFound {
		return ErrNotFound
	}
	return nil
}

func (g *Gateway) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		exists, innerErr = g.store.Exists(ctx, path)
		return innerErr
	})
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", mf_errors.ErrStorageUnavailable, path, err)
	}
	return exists, nil
}

func (g *Gateway) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		keys, innerErr = g.store.List(ctx, prefix)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", mf_errors.ErrStorageUnavailable, prefix, err)
	}
	return keys, nil
}
