package main

import (
	"context"
	"log"

	"mediaforge/config"
	"mediaforge/internal/handler"
	"mediaforge/internal/imaging"
	mfredis "mediaforge/internal/redis"
	"mediaforge/internal/repository"
	"mediaforge/internal/server"
	"mediaforge/internal/services"
	"mediaforge/internal/sessions"
	"mediaforge/internal/storage"
	"mediaforge/pkg/database"
	"mediaforge/pkg/logger"
	"mediaforge/pkg/retry"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	ctx := context.Background()

	if err := database.Connect(ctx, cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Storage.MaxRetries,
		BaseDelay:   cfg.Storage.RetryDelay,
		Jitter:      cfg.Storage.RetryDelay / 2,
	}
	gateway := storage.NewGateway(store, policy, l)

	redisClient := mfredis.NewClient(mfredis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessionStore := sessions.NewRedisStore(redisClient)
	limiter := mfredis.NewRateLimiter(redisClient, mfredis.DefaultRateLimitConfig())

	manager := sessions.NewManager(sessionStore, gateway, sessions.Config{
		ChunkSize:     cfg.Upload.ChunkSize,
		MaxChunks:     cfg.Upload.MaxChunks,
		SessionTTL:    cfg.Upload.SessionTTL,
		SweepInterval: cfg.Upload.SweepInterval,
	}, l)
	manager.StartSweeper()
	defer manager.Stop()

	assetRepo := repository.NewAssetRepository(database.Pool)

	// The image processor is selected once at startup; in degraded mode
	// the pass-through implementation keeps the pipeline alive.
	processor := imaging.NewProcessor()
	if !processor.Available() {
		l.Warnf("image processing unavailable, running avatar pipeline in degraded mode")
	}

	backups := services.NewBackupService(gateway, assetRepo, cfg.Upload.BucketSize, l)
	avatars := services.NewAvatarService(gateway, processor, backups, assetRepo, cfg.Upload.BucketSize, l)
	chunks := services.NewChunkService(manager, gateway)
	assembler := services.NewAssemblerService(manager, gateway, l)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Upload: handler.NewUploadHandler(manager, chunks, assembler, l),
		Avatar: handler.NewAvatarHandler(avatars, backups, l),
	}, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.Storage.Driver == "memory" {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
}
