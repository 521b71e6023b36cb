package database

import (
	"context"
	"fmt"
	"time"

	"mediaforge/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

// Connect initializes the global pgx connection pool.
func Connect(ctx context.Context, cfg *config.Config) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = 100
	poolCfg.MaxConnLifetime = time.Hour

	Pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

// HealthCheck pings the database. Used by the /health endpoint.
func HealthCheck(ctx context.Context) error {
	if Pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	return Pool.Ping(ctx)
}

// Migrate creates the tables the service owns. The pipeline only holds
// the per-owner current-asset pointer; business entities live elsewhere.
func Migrate(ctx context.Context) error {
	if Pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS owner_assets (
			owner_id   BIGINT PRIMARY KEY,
			asset_path TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate owner_assets: %w", err)
	}
	return nil
}
