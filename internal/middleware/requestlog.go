package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
)

// RequestLogger logs every request with method, path, status and
// latency through the shared zap logger.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqLog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
