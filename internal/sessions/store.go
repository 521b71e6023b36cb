package sessions

import (
	"context"
	"sync"
	"time"

	"mediaforge/internal/domain/session"
)

// Store persists upload sessions behind a key-value interface with
// per-key TTL, so session state survives process restarts and is visible
// to whichever instance handles the next request. The in-memory
// implementation below is the conforming implementation used by tests.
type Store interface {
	Get(ctx context.Context, id string) (*session.UploadSession, error)
	Save(ctx context.Context, s *session.UploadSession, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// List returns a snapshot of all live sessions, for the expiry sweep.
	List(ctx context.Context) ([]*session.UploadSession, error)
}

// MemoryStore keeps sessions in a process-local map. Entries past their
// TTL are evicted lazily by whichever read finds them, so the map does
// not accumulate dead records between sweep passes.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session  session.UploadSession
	deadline time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*session.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.deadline) {
		delete(m.sessions, id)
		return nil, nil
	}
	s := cloneSession(entry.session)
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *session.UploadSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memoryEntry{
		session:  cloneSession(*s),
		deadline: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*session.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := make([]*session.UploadSession, 0, len(m.sessions))
	for id, entry := range m.sessions {
		if now.After(entry.deadline) {
			delete(m.sessions, id)
			continue
		}
		s := cloneSession(entry.session)
		out = append(out, &s)
	}
	return out, nil
}

func cloneSession(s session.UploadSession) session.UploadSession {
	chunks := make(map[int]struct{}, len(s.UploadedChunks))
	for i := range s.UploadedChunks {
		chunks[i] = struct{}{}
	}
	s.UploadedChunks = chunks
	return s
}
