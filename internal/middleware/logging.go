package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request after it completes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if caller, ok := CallerFromContext(c); ok {
			fields = append(fields, zap.String("user_id", caller.UserID.String()), zap.String("role", string(caller.Role)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case status >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}
