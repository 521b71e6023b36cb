package services

import (
	"context"
	"strings"
	"testing"

	mf_errors "mediaforge/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupSkipsUnmanagedReferences(t *testing.T) {
	fx := newAvatarFixture(t)

	assert.Empty(t, fx.backups.Backup(context.Background(), 7, ""))
	assert.Empty(t, fx.backups.Backup(context.Background(), 7, "somewhere/else/7.png"))
	// snapshotting a snapshot adds nothing
	assert.Empty(t, fx.backups.Backup(context.Background(), 7, "avatars/backups/0-999/7-123.png"))
	// managed path that does not actually exist
	assert.Empty(t, fx.backups.Backup(context.Background(), 7, "avatars/0-999/7.png"))
}

func TestBackupCopiesCurrentAsset(t *testing.T) {
	fx := newAvatarFixture(t)
	require.NoError(t, fx.mem.Put(context.Background(), "avatars/0-999/7.png", []byte("pixels"), "image/png"))

	ref := fx.backups.Backup(context.Background(), 7, "avatars/0-999/7.png")
	require.NotEmpty(t, ref)
	assert.True(t, strings.HasPrefix(ref, "avatars/backups/0-999/7-"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	data, err := fx.mem.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)

	// the live asset is untouched
	exists, _ := fx.mem.Exists(context.Background(), "avatars/0-999/7.png")
	assert.True(t, exists)
}

func TestListBackupsMergesShardedAndLegacyLocations(t *testing.T) {
	fx := newAvatarFixture(t)
	ctx := context.Background()

	// sharded backups plus one from before sharding existed
	require.NoError(t, fx.mem.Put(ctx, "avatars/backups/0-999/7-200.png", []byte("b"), ""))
	require.NoError(t, fx.mem.Put(ctx, "avatars/backups/0-999/7-400.png", []byte("c"), ""))
	require.NoError(t, fx.mem.Put(ctx, "avatars/backups/7-100.png", []byte("a"), ""))
	// another owner's backup must not leak in
	require.NoError(t, fx.mem.Put(ctx, "avatars/backups/0-999/8-300.png", []byte("x"), ""))

	refs, err := fx.backups.ListBackups(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"avatars/backups/0-999/7-400.png",
		"avatars/backups/0-999/7-200.png",
		"avatars/backups/7-100.png",
	}, refs)
}

func TestListBackupsEmpty(t *testing.T) {
	fx := newAvatarFixture(t)
	refs, err := fx.backups.ListBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestRestoreRepointsWithoutTouchingBackup(t *testing.T) {
	fx := newAvatarFixture(t)
	ctx := context.Background()

	backupRef := "avatars/backups/0-999/7-100.png"
	require.NoError(t, fx.mem.Put(ctx, backupRef, []byte("old pixels"), ""))
	require.NoError(t, fx.repo.SetCurrent(ctx, 7, "avatars/0-999/7.png"))

	require.NoError(t, fx.backups.Restore(ctx, 7, backupRef))

	current, err := fx.repo.GetCurrent(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, backupRef, current)

	// restore is non-destructive and therefore repeatable
	exists, _ := fx.mem.Exists(ctx, backupRef)
	assert.True(t, exists)
	require.NoError(t, fx.backups.Restore(ctx, 7, backupRef))
}

func TestRestoreRejectsForeignOrMissingReferences(t *testing.T) {
	fx := newAvatarFixture(t)
	ctx := context.Background()

	// outside the backup tree
	err := fx.backups.Restore(ctx, 7, "avatars/0-999/7.png")
	assert.ErrorIs(t, err, mf_errors.ErrInvalidReference)

	// another owner's backup
	require.NoError(t, fx.mem.Put(ctx, "avatars/backups/0-999/8-100.png", []byte("x"), ""))
	err = fx.backups.Restore(ctx, 7, "avatars/backups/0-999/8-100.png")
	assert.ErrorIs(t, err, mf_errors.ErrInvalidReference)

	// well-formed but absent
	err = fx.backups.Restore(ctx, 7, "avatars/backups/0-999/7-100.png")
	assert.ErrorIs(t, err, mf_errors.ErrNotFound)
}

func TestCurrentReferenceAbsentIsEmpty(t *testing.T) {
	fx := newAvatarFixture(t)
	ref, err := fx.backups.CurrentReference(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, ref)
}
