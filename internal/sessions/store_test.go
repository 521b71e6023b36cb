package sessions

import (
	"context"
	"testing"
	"time"

	"mediaforge/internal/domain/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeLen(m *MemoryStore) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func TestMemoryStoreGetEvictsExpiredEntry(t *testing.T) {
	st := NewMemoryStore()
	s := &session.UploadSession{ID: "a", UploadedChunks: map[int]struct{}{}}
	require.NoError(t, st.Save(context.Background(), s, time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	got, err := st.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, got)
	// the dead record is gone, not just hidden
	assert.Zero(t, storeLen(st))
}

func TestMemoryStoreListEvictsExpiredEntries(t *testing.T) {
	st := NewMemoryStore()
	dead := &session.UploadSession{ID: "dead", UploadedChunks: map[int]struct{}{}}
	live := &session.UploadSession{ID: "live", UploadedChunks: map[int]struct{}{}}
	require.NoError(t, st.Save(context.Background(), dead, time.Millisecond))
	require.NoError(t, st.Save(context.Background(), live, time.Hour))

	time.Sleep(5 * time.Millisecond)

	all, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "live", all[0].ID)
	assert.Equal(t, 1, storeLen(st))
}
