package services

import (
	"context"
	"testing"
	"time"

	"mediaforge/internal/sessions"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadFixture struct {
	manager *sessions.Manager
	gateway *storage.Gateway
	mem     *storage.MemoryStore
}

func newUploadFixture(t *testing.T, chunkSize int64) *uploadFixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	gateway := storage.NewGateway(mem, retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}, nil)
	manager := sessions.NewManager(sessions.NewMemoryStore(), gateway,
		sessions.Config{ChunkSize: chunkSize, MaxChunks: 50, SessionTTL: time.Hour}, nil)
	t.Cleanup(manager.Stop)
	return &uploadFixture{manager: manager, gateway: gateway, mem: mem}
}

func TestReceiveStoresBytesBeforeBookkeeping(t *testing.T) {
	fx := newUploadFixture(t, 4)
	svc := NewChunkService(fx.manager, fx.gateway)

	s, err := fx.manager.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	updated, err := svc.Receive(context.Background(), s.ID, 7, 0, []byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UploadedCount())

	data, err := fx.mem.Get(context.Background(), sessions.ChunkObjectPath(s.ID, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), data)
}

func TestReceiveRejectedChunkLeavesNoOrphan(t *testing.T) {
	fx := newUploadFixture(t, 4)
	svc := NewChunkService(fx.manager, fx.gateway)

	s, err := fx.manager.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	// index 5 is outside [0,3): the write happens first, then bookkeeping
	// refuses it and the orphaned object must be removed
	_, err = svc.Receive(context.Background(), s.ID, 7, 5, []byte("abcd"))
	assert.ErrorIs(t, err, mf_errors.ErrOutOfRange)

	exists, _ := fx.mem.Exists(context.Background(), sessions.ChunkObjectPath(s.ID, 5))
	assert.False(t, exists)

	// ownership mismatch behaves the same way
	_, err = svc.Receive(context.Background(), s.ID, 99, 1, []byte("abcd"))
	assert.ErrorIs(t, err, mf_errors.ErrForbidden)
	exists, _ = fx.mem.Exists(context.Background(), sessions.ChunkObjectPath(s.ID, 1))
	assert.False(t, exists)
}

func TestReceiveSameIndexReplacesBytes(t *testing.T) {
	fx := newUploadFixture(t, 4)
	svc := NewChunkService(fx.manager, fx.gateway)

	s, err := fx.manager.CreateSession(context.Background(), 7, "f.bin", 10, "")
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), s.ID, 7, 0, []byte("old!"))
	require.NoError(t, err)
	updated, err := svc.Receive(context.Background(), s.ID, 7, 0, []byte("new!"))
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UploadedCount())

	data, err := fx.mem.Get(context.Background(), sessions.ChunkObjectPath(s.ID, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte("new!"), data)
}

func TestReceiveValidation(t *testing.T) {
	fx := newUploadFixture(t, 4)
	svc := NewChunkService(fx.manager, fx.gateway)

	_, err := svc.Receive(context.Background(), "", 7, 0, []byte("abcd"))
	assert.ErrorIs(t, err, mf_errors.ErrInvalidInput)

	_, err = svc.Receive(context.Background(), "some-id", 7, 0, nil)
	assert.ErrorIs(t, err, mf_errors.ErrInvalidInput)

	_, err = svc.Receive(context.Background(), "some-id", 7, -1, []byte("abcd"))
	assert.ErrorIs(t, err, mf_errors.ErrOutOfRange)
}
