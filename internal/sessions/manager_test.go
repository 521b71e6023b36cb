package sessions

import (
	"context"
	"testing"
	"time"

	"mediaforge/internal/domain/session"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg Config) (*Manager, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	gateway := storage.NewGateway(mem, retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}, nil)
	m := NewManager(NewMemoryStore(), gateway, cfg, nil)
	t.Cleanup(m.Stop)
	return m, mem
}

func TestCreateSessionComputesTotalChunks(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 5 * 1024 * 1024, MaxChunks: 200, SessionTTL: time.Hour})

	// 10 MiB at 5 MiB chunks
	s, err := m.CreateSession(context.Background(), 7, "video.mp4", 10*1024*1024, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalChunks)
	assert.Equal(t, session.StatusPending, s.Status)

	// partial last chunk rounds up
	s, err = m.CreateSession(context.Background(), 7, "video.mp4", 10*1024*1024+1, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalChunks)
}

func TestCreateSessionValidation(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 2, SessionTTL: time.Hour})

	_, err := m.CreateSession(context.Background(), 7, "", 10, "")
	assert.ErrorIs(t, err, mf_errors.ErrInvalidInput)

	_, err = m.CreateSession(context.Background(), 7, "f.bin", 0, "")
	assert.ErrorIs(t, err, mf_errors.ErrInvalidInput)

	// 9 bytes needs 3 chunks, limit is 2
	_, err = m.CreateSession(context.Background(), 7, "f.bin", 9, "")
	assert.ErrorIs(t, err, mf_errors.ErrTooLarge)
}

func TestRecordChunkIdempotent(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: time.Hour})
	s, err := m.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	updated, err := m.RecordChunk(context.Background(), s.ID, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusUploading, updated.Status)
	assert.Equal(t, 1, updated.UploadedCount())

	// same index again: no duplicate bookkeeping
	updated, err = m.RecordChunk(context.Background(), s.ID, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UploadedCount())
}

func TestRecordChunkRejections(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: time.Hour})
	s, err := m.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	_, err = m.RecordChunk(context.Background(), "no-such-session", 7, 0)
	assert.ErrorIs(t, err, mf_errors.ErrNotFound)

	_, err = m.RecordChunk(context.Background(), s.ID, 99, 0)
	assert.ErrorIs(t, err, mf_errors.ErrForbidden)

	_, err = m.RecordChunk(context.Background(), s.ID, 7, 3)
	assert.ErrorIs(t, err, mf_errors.ErrOutOfRange)

	_, err = m.RecordChunk(context.Background(), s.ID, 7, -1)
	assert.ErrorIs(t, err, mf_errors.ErrOutOfRange)
}

func TestRecordChunkOnExpiredSessionEagerlyDeletes(t *testing.T) {
	m, mem := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: 10 * time.Millisecond})
	s, err := m.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	_, err = m.RecordChunk(context.Background(), s.ID, 7, 0)
	require.NoError(t, err)
	require.NoError(t, mem.Put(context.Background(), ChunkObjectPath(s.ID, 0), []byte("data"), ""))

	time.Sleep(20 * time.Millisecond)

	_, err = m.RecordChunk(context.Background(), s.ID, 7, 1)
	assert.ErrorIs(t, err, mf_errors.ErrGone)

	// the session and its chunk objects are gone
	_, err = m.Status(context.Background(), s.ID, 7)
	assert.ErrorIs(t, err, mf_errors.ErrNotFound)
	exists, _ := mem.Exists(context.Background(), ChunkObjectPath(s.ID, 0))
	assert.False(t, exists)
}

func TestCancelRemovesSessionAndChunks(t *testing.T) {
	m, mem := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: time.Hour})
	s, err := m.CreateSession(context.Background(), 7, "f.bin", 8, "")
	require.NoError(t, err)

	require.NoError(t, mem.Put(context.Background(), ChunkObjectPath(s.ID, 0), []byte("abcd"), ""))
	_, err = m.RecordChunk(context.Background(), s.ID, 7, 0)
	require.NoError(t, err)

	require.NoError(t, m.Cancel(context.Background(), s.ID, 7))

	_, err = m.Status(context.Background(), s.ID, 7)
	assert.ErrorIs(t, err, mf_errors.ErrNotFound)
	exists, _ := mem.Exists(context.Background(), ChunkObjectPath(s.ID, 0))
	assert.False(t, exists)

	err = m.Cancel(context.Background(), s.ID, 7)
	assert.ErrorIs(t, err, mf_errors.ErrNotFound)
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	m, mem := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: 10 * time.Millisecond, SweepInterval: time.Hour})

	expired, err := m.CreateSession(context.Background(), 7, "old.bin", 8, "")
	require.NoError(t, err)
	require.NoError(t, mem.Put(context.Background(), ChunkObjectPath(expired.ID, 0), []byte("abcd"), ""))
	_, err = m.RecordChunk(context.Background(), expired.ID, 7, 0)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	live, err := m.CreateSession(context.Background(), 7, "new.bin", 8, "")
	require.NoError(t, err)

	swept := m.Sweep(context.Background())
	assert.Equal(t, 1, swept)

	_, err = m.Status(context.Background(), expired.ID, 7)
	assert.ErrorIs(t, err, mf_errors.ErrNotFound)
	exists, _ := mem.Exists(context.Background(), ChunkObjectPath(expired.ID, 0))
	assert.False(t, exists)

	_, err = m.Status(context.Background(), live.ID, 7)
	assert.NoError(t, err)
}

func TestBeginFinalizeReportsMissingChunks(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: time.Hour})
	s, err := m.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	_, err = m.RecordChunk(context.Background(), s.ID, 7, 1)
	require.NoError(t, err)

	_, err = m.BeginFinalize(context.Background(), s.ID, 7)
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []int{0, 2}, incomplete.Missing)
}

func TestDuplicateFinalizeIsRejected(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: time.Hour})
	s, err := m.CreateSession(context.Background(), 7, "f.bin", 8, "")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = m.RecordChunk(context.Background(), s.ID, 7, i)
		require.NoError(t, err)
	}

	_, err = m.BeginFinalize(context.Background(), s.ID, 7)
	require.NoError(t, err)
	require.NoError(t, m.MarkCompleted(context.Background(), s.ID, 7))

	_, err = m.BeginFinalize(context.Background(), s.ID, 7)
	assert.ErrorIs(t, err, mf_errors.ErrConflict)

	// terminal sessions accept no further chunks
	_, err = m.RecordChunk(context.Background(), s.ID, 7, 0)
	assert.ErrorIs(t, err, mf_errors.ErrGone)
}

func TestListOwnerSessions(t *testing.T) {
	m, _ := newTestManager(t, Config{ChunkSize: 4, MaxChunks: 10, SessionTTL: time.Hour})

	_, err := m.CreateSession(context.Background(), 7, "a.bin", 8, "")
	require.NoError(t, err)
	_, err = m.CreateSession(context.Background(), 8, "b.bin", 8, "")
	require.NoError(t, err)

	mine, err := m.ListOwnerSessions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a.bin", mine[0].FileName)
}
