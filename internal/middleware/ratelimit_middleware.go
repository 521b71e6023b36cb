package middleware

import (
	"net/http"
	"strconv"

	"mediaforge/internal/redis"
	"mediaforge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// ChunkRateLimitMiddleware bounds chunk uploads per owner. Apply after
// the auth middleware.
func ChunkRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limitMiddleware(limiter, func(limiter *redis.RateLimiter, c *gin.Context, owner string) (*redis.RateLimitResult, error) {
		return limiter.AllowChunk(c.Request.Context(), owner)
	})
}

// ImageRateLimitMiddleware bounds avatar uploads per owner. Apply after
// the auth middleware.
func ImageRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limitMiddleware(limiter, func(limiter *redis.RateLimiter, c *gin.Context, owner string) (*redis.RateLimitResult, error) {
		return limiter.AllowImage(c.Request.Context(), owner)
	})
}

func limitMiddleware(limiter *redis.RateLimiter, check func(*redis.RateLimiter, *gin.Context, string) (*redis.RateLimitResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ownerID := OwnerID(c)
		if ownerID == 0 {
			c.Next()
			return
		}

		result, err := check(limiter, c, strconv.FormatInt(ownerID, 10))
		if err != nil {
			// Rate limiting is advisory; a limiter outage must not take
			// the pipeline down with it.
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.Itoa(int(result.ResetIn.Seconds())))
}
