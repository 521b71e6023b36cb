package services

import (
	"context"
	"fmt"

	"mediaforge/internal/domain/asset"
	"mediaforge/internal/imaging"
	"mediaforge/internal/repository"
	"mediaforge/internal/sharding"
	"mediaforge/internal/storage"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"
)

// UploadOptions tune one avatar upload call.
type UploadOptions struct {
	CreateBackup     bool
	GenerateVariants bool
}

// DefaultUploadOptions enables backup and variant generation.
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{CreateBackup: true, GenerateVariants: true}
}

// AvatarService is the single-call pipeline for small image assets:
// backup the prior asset, generate renditions (or degrade), persist
// original plus variants, commit the owner pointer, then clean up stale
// files best-effort. The steps have no cross-step atomicity; each
// failure is handled independently per its contract.
type AvatarService struct {
	gateway    *storage.Gateway
	processor  imaging.Processor
	backups    *BackupService
	repo       repository.AssetRepository
	bucketSize int64
	logger     *logger.Logger
}

func NewAvatarService(gateway *storage.Gateway, processor imaging.Processor, backups *BackupService, repo repository.AssetRepository, bucketSize int64, l *logger.Logger) *AvatarService {
	return &AvatarService{
		gateway:    gateway,
		processor:  processor,
		backups:    backups,
		repo:       repo,
		bucketSize: bucketSize,
		logger:     l,
	}
}

// Upload runs the full pipeline and returns the resulting variant set.
// The only hard failure is being unable to store the original or commit
// the pointer; everything else degrades.
func (a *AvatarService) Upload(ctx context.Context, ownerID int64, data []byte, opts UploadOptions) (*asset.VariantSet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image bytes required", mf_errors.ErrInvalidInput)
	}

	currentRef, err := a.backups.CurrentReference(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	backupRef := ""
	if opts.CreateBackup {
		backupRef = a.backups.Backup(ctx, ownerID, currentRef)
	}

	var renditions map[imaging.Variant][]byte
	if opts.GenerateVariants {
		renditions = a.processor.Generate(data)
	}
	degraded := renditions == nil

	// The stored format comes from the file header, never from a
	// client-supplied name.
	format := imaging.SniffFormat(data)
	originalPath := sharding.ObjectPath(avatarPrefix, ownerID, a.bucketSize, "", format.Extension, true)
	if err := a.gateway.Put(ctx, originalPath, data, format.MIMEType); err != nil {
		return nil, err
	}

	variantRefs := make(map[string]string, len(renditions))
	for _, name := range imaging.Variants() {
		encoded, ok := renditions[name]
		if !ok {
			continue
		}
		variantPath := sharding.ObjectPath(avatarPrefix, ownerID, a.bucketSize, name.PathSuffix(), "jpg", true)
		if err := a.gateway.Put(ctx, variantPath, encoded, "image/jpeg"); err != nil {
			// A failed variant upload degrades to "no variants"; the
			// original upload stands.
			if a.logger != nil {
				a.logger.Warnf("variant %s upload failed for owner %d: %v", name, ownerID, err)
			}
			variantRefs = nil
			degraded = true
			break
		}
		variantRefs[string(name)] = variantPath
	}

	if err := a.repo.SetCurrent(ctx, ownerID, originalPath); err != nil {
		return nil, err
	}

	// Stale cleanup after the pointer commit, best-effort only.
	if currentRef != "" && currentRef != originalPath {
		a.gateway.Delete(ctx, currentRef)
	}
	if degraded {
		for _, name := range imaging.Variants() {
			a.gateway.Delete(ctx, sharding.ObjectPath(avatarPrefix, ownerID, a.bucketSize, name.PathSuffix(), "jpg", true))
		}
	}

	result := &asset.VariantSet{
		Original:        originalPath,
		BackupReference: backupRef,
		Degraded:        degraded,
	}
	if len(variantRefs) > 0 {
		result.Variants = variantRefs
	}
	return result, nil
}
