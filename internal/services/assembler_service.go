package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"mediaforge/internal/sessions"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"

	"github.com/google/uuid"
)

// FinalizeResult references the assembled object. The correlation id is
// a fresh opaque token minted per assembly for cross-system tracing.
type FinalizeResult struct {
	FinalReference string
	FileName       string
	FileSize       int64
	CorrelationID  string
}

// AssemblerService turns a complete set of chunks into the final object.
type AssemblerService struct {
	manager *sessions.Manager
	gateway *storage.Gateway
	logger  *logger.Logger
}

func NewAssemblerService(manager *sessions.Manager, gateway *storage.Gateway, l *logger.Logger) *AssemblerService {
	return &AssemblerService{manager: manager, gateway: gateway, logger: l}
}

// Finalize downloads the chunks in index order, concatenates them,
// verifies the aggregate size against the declared size, writes the
// final object and deletes the chunks best-effort. No partial final
// object is ever kept: the write only happens after the size check.
//
// There is no cross-object transaction. If the process dies mid-way the
// chunks survive and the session stays non-terminal, so calling Finalize
// again is safe; the completed transition is committed last.
func (a *AssemblerService) Finalize(ctx context.Context, sessionID string, ownerID int64) (*FinalizeResult, error) {
	s, err := a.manager.BeginFinalize(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	correlationID := uuid.New().String()

	// Chunks are fetched one at a time; memory holds one chunk plus the
	// accumulator. TODO: stream into a multipart put to drop the
	// accumulator and bound memory to O(chunk size).
	var buf bytes.Buffer
	buf.Grow(int(s.DeclaredSize))
	for i := 0; i < s.TotalChunks; i++ {
		chunkPath := sessions.ChunkObjectPath(s.ID, i)
		data, err := a.gateway.Get(ctx, chunkPath)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// BeginFinalize saw every chunk recorded, so a missing
				// object means a racing cancel or sweep removed them.
				return nil, mf_errors.ErrGone
			}
			return nil, fmt.Errorf("reading chunk %d of session %s: %w", i, s.ID, err)
		}
		buf.Write(data)
	}

	if int64(buf.Len()) != s.DeclaredSize {
		return nil, fmt.Errorf("%w: expected %d bytes, assembled %d",
			mf_errors.ErrSizeMismatch, s.DeclaredSize, buf.Len())
	}

	// The correlation id keeps the path unique per attempt, so the
	// rollback below can only ever delete this attempt's own object.
	finalPath := finalObjectPath(s.ID, correlationID, s.FileName, time.Now())
	if err := a.gateway.Put(ctx, finalPath, buf.Bytes(), s.MimeType); err != nil {
		return nil, err
	}

	if err := a.manager.MarkCompleted(ctx, sessionID, ownerID); err != nil {
		// A racing cancel or sweep turned the session terminal while we
		// were assembling; honor it and drop the object we just wrote.
		a.gateway.Delete(ctx, finalPath)
		return nil, mf_errors.ErrGone
	}

	for i := 0; i < s.TotalChunks; i++ {
		a.gateway.Delete(ctx, sessions.ChunkObjectPath(s.ID, i))
	}

	if a.logger != nil {
		a.logger.Infof("assembled session %s into %s (%d bytes, correlation %s)",
			s.ID, finalPath, buf.Len(), correlationID)
	}

	return &FinalizeResult{
		FinalReference: finalPath,
		FileName:       s.FileName,
		FileSize:       int64(buf.Len()),
		CorrelationID:  correlationID,
	}, nil
}

func finalObjectPath(sessionID, correlationID, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("uploads/%s-%d-%s%s", sessionID, now.Unix(), correlationID, ext)
}
