package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds response headers suited to a JSON-only API.
// Meter and estimate responses are time-sensitive and never cached.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		c.Next()
	}
}
