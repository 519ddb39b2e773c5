package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
)

// LoggerMiddleware creates a structured logging middleware. The request
// logger, tagged with the request id, is stored in the request context.
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	base = logger.OrNop(base)
	return func(c *gin.Context) {
		// Generate request ID if not present
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		reqLog := base.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			reqLog.Warn("request failed", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
			return
		}
		reqLog.Info("request", fields...)
	}
}
