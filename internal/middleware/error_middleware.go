package middleware

import (
	"mediaforge/internal/transport/httpdto"
	mf_errors "mediaforge/pkg/errors"
	"mediaforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors attached via c.Error that no handler
// turned into a response itself, using the pipeline's stable error
// codes.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error on %s %s: %s", c.Request.Method, c.Request.URL.Path, err.Error())
		}
		c.JSON(c.Writer.Status(), httpdto.NewErrorResponse(err.Error(), mf_errors.Code(err)))
	}
}
