package services

import (
	"context"
	"fmt"

	"mediaforge/internal/domain/session"
	"mediaforge/internal/sessions"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
)

// ChunkService accepts one chunk of a resumable upload. The chunk bytes
// are written to temporary storage first and only then recorded in the
// session bookkeeping, so a session never claims a chunk it cannot later
// retrieve.
type ChunkService struct {
	manager *sessions.Manager
	gateway *storage.Gateway
}

func NewChunkService(manager *sessions.Manager, gateway *storage.Gateway) *ChunkService {
	return &ChunkService{manager: manager, gateway: gateway}
}

// Receive persists the chunk and records its index. Writing the same
// index twice replaces the stored bytes and leaves the bookkeeping
// unchanged. Chunks for distinct indices of one session may arrive
// concurrently.
func (s *ChunkService) Receive(ctx context.Context, sessionID string, ownerID int64, index int, data []byte) (*session.UploadSession, error) {
	if sessionID == "" || len(data) == 0 {
		return nil, fmt.Errorf("%w: session id and chunk bytes required", mf_errors.ErrInvalidInput)
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: index %d", mf_errors.ErrOutOfRange, index)
	}

	path := sessions.ChunkObjectPath(sessionID, index)
	if err := s.gateway.Put(ctx, path, data, "application/octet-stream"); err != nil {
		return nil, err
	}

	sess, err := s.manager.RecordChunk(ctx, sessionID, ownerID, index)
	if err != nil {
		// The write landed but bookkeeping refused it (expired session,
		// bad index, ownership mismatch). Drop the orphaned chunk.
		s.gateway.Delete(ctx, path)
		return nil, err
	}
	return sess, nil
}
