package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

var httpPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ridemeter_http_panics_total",
	Help: "Handler panics recovered per route template",
}, []string{"endpoint"})

// Recovery turns a handler panic into a 500 envelope and logs it with the
// route and ride id. When sentrygin is mounted with Repanic it must sit
// before this middleware.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			endpoint := c.FullPath()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			httpPanicsTotal.WithLabelValues(endpoint).Inc()

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("endpoint", endpoint),
				zap.String("method", c.Request.Method),
				zap.Stack("stack"),
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("ride_id", id))
			}
			logger.WithContext(c.Request.Context()).Error("handler panicked", fields...)

			c.Abort()
			common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
		}()

		c.Next()
	}
}
