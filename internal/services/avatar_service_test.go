package services

import (
	"bytes"
	"context"
	"image"
	"testing"
	"time"

	"mediaforge/internal/imaging"
	"mediaforge/internal/repository"
	"mediaforge/internal/storage"
	"mediaforge/pkg/retry"

	img "github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type avatarFixture struct {
	mem     *storage.MemoryStore
	gateway *storage.Gateway
	repo    *repository.MemoryAssetRepository
	backups *BackupService
}

func newAvatarFixture(t *testing.T) *avatarFixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	gateway := storage.NewGateway(mem, retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}, nil)
	repo := repository.NewMemoryAssetRepository()
	return &avatarFixture{
		mem:     mem,
		gateway: gateway,
		repo:    repo,
		backups: NewBackupService(gateway, repo, 1000, nil),
	}
}

func (fx *avatarFixture) service(p imaging.Processor) *AvatarService {
	return NewAvatarService(fx.gateway, p, fx.backups, fx.repo, 1000, nil)
}

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, img.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 200)), img.PNG))
	return buf.Bytes()
}

func TestUploadStoresOriginalAndVariants(t *testing.T) {
	fx := newAvatarFixture(t)
	svc := fx.service(imaging.NewProcessor())

	result, err := svc.Upload(context.Background(), 7, testImagePNG(t), DefaultUploadOptions())
	require.NoError(t, err)

	assert.Equal(t, "avatars/0-999/7.png", result.Original)
	assert.False(t, result.Degraded)
	assert.Empty(t, result.BackupReference, "first upload has nothing to back up")
	require.Len(t, result.Variants, 3)

	// mapping keys are the full rendition names; file names carry the
	// short suffix
	assert.Equal(t, "avatars/0-999/7-thumb.jpg", result.Variants["thumbnail"])
	assert.Equal(t, "avatars/0-999/7-small.jpg", result.Variants["small"])
	assert.Equal(t, "avatars/0-999/7-medium.jpg", result.Variants["medium"])

	for _, ref := range result.Variants {
		exists, err := fx.mem.Exists(context.Background(), ref)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	current, err := fx.repo.GetCurrent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, result.Original, current)
}

func TestUploadDegradesWithoutProcessor(t *testing.T) {
	fx := newAvatarFixture(t)
	svc := fx.service(imaging.PassthroughProcessor{})

	result, err := svc.Upload(context.Background(), 7, testImagePNG(t), DefaultUploadOptions())
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Nil(t, result.Variants)
	exists, err := fx.mem.Exists(context.Background(), result.Original)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSecondUploadBacksUpAndReplaces(t *testing.T) {
	fx := newAvatarFixture(t)
	svc := fx.service(imaging.PassthroughProcessor{})

	first, err := svc.Upload(context.Background(), 7, testImagePNG(t), DefaultUploadOptions())
	require.NoError(t, err)

	// second upload is a jpeg, so the original path changes extension
	second, err := svc.Upload(context.Background(), 7, []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}, DefaultUploadOptions())
	require.NoError(t, err)

	assert.Equal(t, "avatars/0-999/7.jpg", second.Original)
	assert.NotEmpty(t, second.BackupReference)

	// the backup holds the first upload's bytes
	backedUp, err := fx.mem.Get(context.Background(), second.BackupReference)
	require.NoError(t, err)
	firstBytes := testImagePNG(t)
	assert.Equal(t, firstBytes, backedUp)

	// the replaced original is removed once the pointer moved
	exists, _ := fx.mem.Exists(context.Background(), first.Original)
	assert.False(t, exists)
}

func TestUploadWithBackupDisabled(t *testing.T) {
	fx := newAvatarFixture(t)
	svc := fx.service(imaging.PassthroughProcessor{})

	_, err := svc.Upload(context.Background(), 7, testImagePNG(t), DefaultUploadOptions())
	require.NoError(t, err)

	result, err := svc.Upload(context.Background(), 7, testImagePNG(t),
		UploadOptions{CreateBackup: false, GenerateVariants: false})
	require.NoError(t, err)
	assert.Empty(t, result.BackupReference)

	refs, err := fx.backups.ListBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestUploadRejectsEmptyPayload(t *testing.T) {
	fx := newAvatarFixture(t)
	svc := fx.service(imaging.PassthroughProcessor{})

	_, err := svc.Upload(context.Background(), 7, nil, DefaultUploadOptions())
	assert.Error(t, err)
}
