package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs HTTP requests. Meter polls are logged at debug level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}

		reqLogger := logger.WithContext(c.Request.Context())

		switch {
		case len(c.Errors) > 0:
			reqLogger.Error("Request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Request.Method == "GET" && c.FullPath() == "/api/v1/rides/:id":
			reqLogger.Debug("Request completed", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}
