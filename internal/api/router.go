// Package api assembles the HTTP surface of the fare service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/richxcame/ridemeter/pkg/middleware"
)

// Version is reported by the health endpoints
var Version = "dev"

// RouteRegistrar mounts a feature's endpoints
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Deps are the handlers and dependency checks the router mounts
type Deps struct {
	Handlers     []RouteRegistrar
	HealthChecks map[string]func() error
	Sentry       bool
}

// NewRouter builds the gin engine with the standard middleware chain
func NewRouter(cfg *config.ServerConfig, deps Deps) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	if deps.Sentry {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.ServiceName))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/healthz", common.HealthCheck(cfg.ServiceName, Version))
	router.GET("/readyz", common.HealthCheckWithDeps(cfg.ServiceName, Version, deps.HealthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	if cfg.RequestTimeout > 0 {
		v1.Use(requestTimeout(time.Duration(cfg.RequestTimeout) * time.Second))
	}
	for _, h := range deps.Handlers {
		h.RegisterRoutes(v1)
	}

	router.NoRoute(func(c *gin.Context) {
		common.ErrorResponse(c, http.StatusNotFound, "route not found")
	})
	return router
}

func corsConfig(origins string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}

	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = allowed
	}
	return c
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "request timed out")
		}),
	)
}
