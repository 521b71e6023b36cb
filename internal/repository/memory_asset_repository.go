package repository

import (
	"context"
	"sync"

	mf_errors "mediaforge/pkg/errors"
)

// MemoryAssetRepository is the in-process AssetRepository used by tests.
type MemoryAssetRepository struct {
	mu      sync.RWMutex
	current map[int64]string
}

func NewMemoryAssetRepository() *MemoryAssetRepository {
	return &MemoryAssetRepository{current: make(map[int64]string)}
}

func (r *MemoryAssetRepository) GetCurrent(ctx context.Context, ownerID int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.current[ownerID]
	if !ok {
		return "", mf_errors.ErrNotFound
	}
	return path, nil
}

func (r *MemoryAssetRepository) SetCurrent(ctx context.Context, ownerID int64, assetPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[ownerID] = assetPath
	return nil
}
