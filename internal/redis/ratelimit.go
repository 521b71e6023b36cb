package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{owner_id}:chunks - 60s TTL, per-minute chunk uploads
// - ratelimit:{owner_id}:images - 60s TTL, per-minute avatar uploads

// RateLimitConfig contains configuration for rate limiting
type RateLimitConfig struct {
	ChunkLimit  int           // Max chunk uploads per window
	ChunkWindow time.Duration // Chunk rate limit window
	ImageLimit  int           // Max image uploads per window
	ImageWindow time.Duration // Image rate limit window
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		ChunkLimit:  240, // parallel chunk streams are normal, keep this generous
		ChunkWindow: 60 * time.Second,
		ImageLimit:  20,
		ImageWindow: 60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// AllowChunk checks if an owner can upload another chunk
func (r *RateLimiter) AllowChunk(ctx context.Context, ownerID string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:chunks", ownerID)
	return r.checkLimit(ctx, key, r.config.ChunkLimit, r.config.ChunkWindow)
}

// AllowImage checks if an owner can upload another image
func (r *RateLimiter) AllowImage(ctx context.Context, ownerID string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:images", ownerID)
	return r.checkLimit(ctx, key, r.config.ImageLimit, r.config.ImageWindow)
}

// checkLimit performs the actual rate limit check using a sliding window counter
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	// Use Lua script for atomic increment and check
	script := goredis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('GET', key)
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end

		if current < limit then
			redis.call('INCR', key)
			if ttl == window then
				redis.call('EXPIRE', key, window)
			end
			return {1, limit - current - 1, ttl}
		else
			return {0, 0, ttl}
		end
	`)

	result, err := script.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	allowed, _ := resultSlice[0].(int64)
	remaining, _ := resultSlice[1].(int64)
	ttl, _ := resultSlice[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     limit,
	}, nil
}
