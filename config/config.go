package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	AppPort string
	AppMode string

	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Auth     AuthConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type StorageConfig struct {
	Driver     string // "s3" or "memory"
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	MaxRetries int
	RetryDelay time.Duration
}

type UploadConfig struct {
	ChunkSize     int64
	MaxChunks     int
	SessionTTL    time.Duration
	SweepInterval time.Duration
	BucketSize    int64 // ids per shard folder
}

type AuthConfig struct {
	JWTSecret string
}

// LoadConfig loads configuration from environment variables.
// Defaults are chosen so the service runs locally with no env set.
func LoadConfig() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "mediaforge"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "s3"),
			Region:     getEnv("S3_REGION", "us-east-1"),
			Bucket:     getEnv("S3_BUCKET", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			MaxRetries: getEnvAsInt("STORAGE_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("STORAGE_RETRY_DELAY", 100*time.Millisecond),
		},
		Upload: UploadConfig{
			ChunkSize:     int64(getEnvAsInt("UPLOAD_CHUNK_SIZE", 5*1024*1024)),
			MaxChunks:     getEnvAsInt("UPLOAD_MAX_CHUNKS", 200),
			SessionTTL:    getEnvAsDuration("UPLOAD_SESSION_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("UPLOAD_SWEEP_INTERVAL", 5*time.Minute),
			BucketSize:    int64(getEnvAsInt("SHARD_BUCKET_SIZE", 1000)),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
