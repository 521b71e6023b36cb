package sessions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mediaforge/internal/domain/session"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"

	"github.com/google/uuid"
)

// storeGrace keeps terminal/expired session records readable a little
// past their deadline so the sweep, not store eviction, is the authority
// for chunk cleanup, and so duplicate finalize calls can be rejected
// instead of reported as unknown sessions.
const storeGrace = time.Hour

// IncompleteError reports the exact chunk indices a finalize call is
// still missing, so the client can retry only those.
type IncompleteError struct {
	Missing []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("upload incomplete: %d chunks missing", len(e.Missing))
}

// Config bounds session creation and the expiry sweep.
type Config struct {
	ChunkSize     int64
	MaxChunks     int
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// Manager owns the upload-session state machine. All mutations of a
// session record (chunk bookkeeping, status transitions) happen under a
// single mutex; the sweep uses the same discipline so it cannot race
// destructively with an in-flight finalize or cancel.
type Manager struct {
	mu       sync.Mutex
	store    Store
	gateway  *storage.Gateway
	cfg      Config
	logger   *logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewManager(store Store, gateway *storage.Gateway, cfg Config, l *logger.Logger) *Manager {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 5 * 1024 * 1024
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 200
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	return &Manager{
		store:    store,
		gateway:  gateway,
		cfg:      cfg,
		logger:   l,
		stopChan: make(chan struct{}),
	}
}

// ChunkSize returns the fixed per-session chunk size.
func (m *Manager) ChunkSize() int64 { return m.cfg.ChunkSize }

// ChunkObjectPath is the temporary storage path for one chunk, keyed by
// (sessionID, index).
func ChunkObjectPath(sessionID string, index int) string {
	return fmt.Sprintf("tmp/chunks/%s/%05d", sessionID, index)
}

// CreateSession registers a new resumable upload. The declared size must
// fit within MaxChunks chunks of the fixed chunk size.
func (m *Manager) CreateSession(ctx context.Context, ownerID int64, fileName string, declaredSize int64, mimeType string) (*session.UploadSession, error) {
	if fileName == "" || declaredSize <= 0 {
		return nil, fmt.Errorf("%w: file name and positive size required", mf_errors.ErrInvalidInput)
	}

	totalChunks := int((declaredSize + m.cfg.ChunkSize - 1) / m.cfg.ChunkSize)
	if totalChunks > m.cfg.MaxChunks {
		return nil, fmt.Errorf("%w: %d chunks exceeds limit of %d", mf_errors.ErrTooLarge, totalChunks, m.cfg.MaxChunks)
	}

	now := time.Now()
	s := &session.UploadSession{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		FileName:       fileName,
		DeclaredSize:   declaredSize,
		MimeType:       mimeType,
		ChunkSize:      m.cfg.ChunkSize,
		TotalChunks:    totalChunks,
		UploadedChunks: make(map[int]struct{}),
		Status:         session.StatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.cfg.SessionTTL),
	}

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordChunk marks one chunk index as uploaded. It must only be called
// after the chunk bytes are durably stored. Recording the same index
// twice is a no-op; the first accepted chunk moves the session from
// pending to uploading.
func (m *Manager) RecordChunk(ctx context.Context, sessionID string, ownerID int64, index int) (*session.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, mf_errors.ErrGone
	}
	if s.Expired(time.Now()) {
		// Eager cleanup: the session is dead, drop it and its chunks now
		// rather than waiting for the sweep.
		m.destroyLocked(ctx, s)
		return nil, mf_errors.ErrGone
	}
	if index < 0 || index >= s.TotalChunks {
		return nil, fmt.Errorf("%w: index %d not in [0,%d)", mf_errors.ErrOutOfRange, index, s.TotalChunks)
	}

	if _, dup := s.UploadedChunks[index]; !dup {
		s.UploadedChunks[index] = struct{}{}
	}
	if s.Status == session.StatusPending {
		s.Status = session.StatusUploading
	}

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Status returns the current session state for the owning caller.
func (m *Manager) Status(ctx context.Context, sessionID string, ownerID int64) (*session.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if !s.Status.Terminal() && s.Expired(time.Now()) {
		m.destroyLocked(ctx, s)
		return nil, mf_errors.ErrGone
	}
	return s, nil
}

// Cancel terminates a non-terminal session, removing its chunk objects
// best-effort. Cancelling an already-terminal session is a conflict.
func (m *Manager) Cancel(ctx context.Context, sessionID string, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, sessionID, ownerID)
	if err != nil {
		return err
	}
	if s.Status.Terminal() {
		return mf_errors.ErrConflict
	}
	s.Status = session.StatusCancelled
	m.destroyLocked(ctx, s)
	return nil
}

// BeginFinalize validates the finalize preconditions under the manager
// lock: the caller owns a live session with every chunk recorded. The
// assembly itself runs outside the lock; MarkCompleted commits the
// terminal transition afterwards. A session that is already completed is
// rejected so a duplicate finalize cannot double-write the final object.
func (m *Manager) BeginFinalize(ctx context.Context, sessionID string, ownerID int64) (*session.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		if s.Status == session.StatusCompleted {
			return nil, mf_errors.ErrConflict
		}
		return nil, mf_errors.ErrGone
	}
	if s.Expired(time.Now()) {
		m.destroyLocked(ctx, s)
		return nil, mf_errors.ErrGone
	}
	if !s.Complete() {
		return nil, &IncompleteError{Missing: s.MissingChunks()}
	}
	return s, nil
}

// MarkCompleted commits the terminal completed state after the final
// object has been written. A cancel that won the race is respected: the
// transition is refused once the session turned terminal.
func (m *Manager) MarkCompleted(ctx context.Context, sessionID string, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, sessionID, ownerID)
	if err != nil {
		return err
	}
	if s.Status.Terminal() {
		return mf_errors.ErrInvalidTransition
	}
	s.Status = session.StatusCompleted
	return m.save(ctx, s)
}

// ListOwnerSessions returns the caller's live sessions, newest first.
func (m *Manager) ListOwnerSessions(ctx context.Context, ownerID int64) ([]*session.UploadSession, error) {
	all, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*session.UploadSession, 0)
	for _, s := range all {
		if s.OwnerID == ownerID && !s.Status.Terminal() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// StartSweeper runs the expiry sweep on a fixed interval until Stop.
func (m *Manager) StartSweeper() {
	go func() {
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopChan:
				return
			case <-ticker.C:
				m.Sweep(context.Background())
			}
		}
	}()
}

// Stop halts the background sweeper.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Sweep removes sessions past their deadline along with their chunk
// objects. Each candidate is re-checked under the manager lock before
// destruction so an in-flight finalize or cancel cannot be clobbered.
func (m *Manager) Sweep(ctx context.Context) int {
	all, err := m.store.List(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Errorf("expiry sweep: listing sessions failed: %v", err)
		}
		return 0
	}

	swept := 0
	now := time.Now()
	for _, candidate := range all {
		if candidate.Status.Terminal() || !candidate.Expired(now) {
			continue
		}
		m.mu.Lock()
		s, err := m.loadAny(ctx, candidate.ID)
		// Re-check: the session may have completed, been cancelled, or
		// vanished since the snapshot.
		if err == nil && s != nil && !s.Status.Terminal() && s.Expired(now) {
			s.Status = session.StatusExpired
			m.destroyLocked(ctx, s)
			swept++
		}
		m.mu.Unlock()
	}

	if swept > 0 && m.logger != nil {
		m.logger.Infof("expiry sweep removed %d sessions", swept)
	}
	return swept
}

// load fetches a session and enforces ownership. Caller holds m.mu.
func (m *Manager) load(ctx context.Context, sessionID string, ownerID int64) (*session.UploadSession, error) {
	s, err := m.loadAny(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, mf_errors.ErrNotFound
	}
	if s.OwnerID != ownerID {
		return nil, mf_errors.ErrForbidden
	}
	return s, nil
}

func (m *Manager) loadAny(ctx context.Context, sessionID string) (*session.UploadSession, error) {
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return s, nil
}

func (m *Manager) save(ctx context.Context, s *session.UploadSession) error {
	ttl := time.Until(s.ExpiresAt) + storeGrace
	if err := m.store.Save(ctx, s, ttl); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// destroyLocked deletes the session's chunk objects best-effort and
// removes the record. Caller holds m.mu.
func (m *Manager) destroyLocked(ctx context.Context, s *session.UploadSession) {
	for i := range s.UploadedChunks {
		m.gateway.Delete(ctx, ChunkObjectPath(s.ID, i))
	}
	if err := m.store.Delete(ctx, s.ID); err != nil && m.logger != nil {
		m.logger.Warnf("failed to delete session %s: %v", s.ID, err)
	}
}
