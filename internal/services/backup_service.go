package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"mediaforge/internal/repository"
	"mediaforge/internal/sharding"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"
)

const (
	avatarPrefix = "avatars"
	backupPrefix = "avatars/backups"
)

// BackupService snapshots the current asset before an overwrite and
// supports listing and restoring those snapshots.
type BackupService struct {
	gateway    *storage.Gateway
	repo       repository.AssetRepository
	bucketSize int64
	logger     *logger.Logger
}

func NewBackupService(gateway *storage.Gateway, repo repository.AssetRepository, bucketSize int64, l *logger.Logger) *BackupService {
	return &BackupService{gateway: gateway, repo: repo, bucketSize: bucketSize, logger: l}
}

// Backup copies currentRef to a timestamped location under the backup
// tree and returns the new reference. It is a no-op ("" reference) when
// there is no current asset, the reference does not live in managed
// storage, or the copy fails: a failed backup must degrade rather than
// block the overwrite it precedes.
func (b *BackupService) Backup(ctx context.Context, ownerID int64, currentRef string) string {
	if currentRef == "" || !strings.HasPrefix(currentRef, avatarPrefix+"/") {
		return ""
	}
	if strings.HasPrefix(currentRef, backupPrefix+"/") {
		// Current pointer already sits in the backup tree (post-restore
		// state); snapshotting a snapshot adds nothing.
		return ""
	}

	exists, err := b.gateway.Exists(ctx, currentRef)
	if err != nil || !exists {
		return ""
	}

	backupRef := b.backupPath(ownerID, currentRef, time.Now())
	if err := b.gateway.Copy(ctx, currentRef, backupRef); err != nil {
		if b.logger != nil {
			b.logger.Warnf("backup of %s failed: %v", currentRef, err)
		}
		return ""
	}
	return backupRef
}

// ListBackups returns the owner's backup references, most recent first.
// Both the sharded location and the legacy flat location are scanned for
// assets created before sharding was introduced; duplicates collapse.
func (b *BackupService) ListBackups(ctx context.Context, ownerID int64) ([]string, error) {
	shardedPrefix := fmt.Sprintf("%s/%s/%d-", backupPrefix, sharding.Shard(ownerID, b.bucketSize), ownerID)
	flatPrefix := fmt.Sprintf("%s/%d-", backupPrefix, ownerID)

	seen := make(map[string]struct{})
	var refs []string
	for _, prefix := range []string{shardedPrefix, flatPrefix} {
		keys, err := b.gateway.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			refs = append(refs, key)
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		return backupTimestamp(refs[i]) > backupTimestamp(refs[j])
	})
	return refs, nil
}

// Restore repoints the owner's current asset at an existing backup. The
// backup itself is untouched, so restores are repeatable.
func (b *BackupService) Restore(ctx context.Context, ownerID int64, backupRef string) error {
	if !strings.HasPrefix(backupRef, backupPrefix+"/") ||
		!strings.Contains(path.Base(backupRef), fmt.Sprintf("%d-", ownerID)) {
		return mf_errors.ErrInvalidReference
	}

	exists, err := b.gateway.Exists(ctx, backupRef)
	if err != nil {
		return err
	}
	if !exists {
		return mf_errors.ErrNotFound
	}

	return b.repo.SetCurrent(ctx, ownerID, backupRef)
}

// CurrentReference returns the owner's pointer, "" when absent.
func (b *BackupService) CurrentReference(ctx context.Context, ownerID int64) (string, error) {
	ref, err := b.repo.GetCurrent(ctx, ownerID)
	if err != nil {
		if errors.Is(err, mf_errors.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return ref, nil
}

// backupPath keeps backups under the same shard folder as the live
// asset so one owner's files co-locate.
func (b *BackupService) backupPath(ownerID int64, currentRef string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(currentRef), ".")
	name := fmt.Sprintf("%d-%d", ownerID, now.UnixNano())
	if ext != "" {
		name += "." + ext
	}
	return fmt.Sprintf("%s/%s/%s", backupPrefix, sharding.Shard(ownerID, b.bucketSize), name)
}

// backupTimestamp extracts the numeric suffix used for ordering; names
// that do not parse sort last.
func backupTimestamp(ref string) int64 {
	base := path.Base(ref)
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	i := strings.LastIndex(base, "-")
	if i < 0 {
		return -1
	}
	ts, err := strconv.ParseInt(base[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return ts
}
