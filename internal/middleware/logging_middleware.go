package middleware

import (
	"time"

	"mediaforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs one line per request. Body size is included
// because chunk and image uploads are the dominant traffic and their
// payload sizes matter when reading latency.
func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		bodySize := c.Request.ContentLength

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log == nil {
			return
		}
		if bodySize > 0 {
			log.Infof("%s %s %d %s (%dB in)", method, path, status, latency.String(), bodySize)
			return
		}
		log.Infof("%s %s %d %s", method, path, status, latency.String())
	}
}
