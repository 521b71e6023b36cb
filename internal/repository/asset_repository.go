package repository

import (
	"context"
	"errors"
	"time"

	mf_errors "mediaforge/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssetRepository holds the single current-asset pointer per owner. The
// pointer is the only business-side projection of the avatar pipeline
// and is always replaced atomically at the row level.
type AssetRepository interface {
	GetCurrent(ctx context.Context, ownerID int64) (string, error)
	SetCurrent(ctx context.Context, ownerID int64, assetPath string) error
}

type PostgresAssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *PostgresAssetRepository {
	return &PostgresAssetRepository{pool: pool}
}

// GetCurrent returns the owner's current asset path, or ErrNotFound when
// the owner has no asset yet.
func (r *PostgresAssetRepository) GetCurrent(ctx context.Context, ownerID int64) (string, error) {
	var path string
	err := r.pool.QueryRow(ctx,
		`SELECT asset_path FROM owner_assets WHERE owner_id = $1`, ownerID).Scan(&path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", mf_errors.ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// SetCurrent atomically repoints the owner's current asset. The upsert
// touches exactly one row, so readers see either the old or the new
// pointer, never a partial state.
func (r *PostgresAssetRepository) SetCurrent(ctx context.Context, ownerID int64, assetPath string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO owner_assets (owner_id, asset_path, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id)
		 DO UPDATE SET asset_path = EXCLUDED.asset_path, updated_at = EXCLUDED.updated_at`,
		ownerID, assetPath, time.Now())
	return err
}
