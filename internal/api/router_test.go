package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ridemeter/internal/traffic"
	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/richxcame/ridemeter/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	rg.GET("/panic", func(c *gin.Context) { panic("boom") })
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ServiceName:    "fare-api",
		Environment:    "test",
		RequestTimeout: 0,
		CORSOrigins:    "http://localhost:3000",
	}
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter_MountsHandlers(t *testing.T) {
	r := NewRouter(testServerConfig(), Deps{Handlers: []RouteRegistrar{pingHandler{}}})

	w := serve(r, http.MethodGet, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.CorrelationIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(r, http.MethodGet, "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	r := NewRouter(testServerConfig(), Deps{Handlers: []RouteRegistrar{pingHandler{}}})

	w := serve(r, http.MethodGet, "/api/v1/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestNewRouter_WithRequestTimeout(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequestTimeout = 5
	r := NewRouter(cfg, Deps{Handlers: []RouteRegistrar{pingHandler{}}})

	w := serve(r, http.MethodGet, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_Health(t *testing.T) {
	healthy := NewRouter(testServerConfig(), Deps{HealthChecks: map[string]func() error{
		"database": func() error { return nil },
	}})
	assert.Equal(t, http.StatusOK, serve(healthy, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(healthy, http.MethodGet, "/readyz").Code)

	unhealthy := NewRouter(testServerConfig(), Deps{HealthChecks: map[string]func() error{
		"redis": func() error { return errors.New("connection refused") },
	}})
	w := serve(unhealthy, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.Equal(t, http.StatusOK, serve(unhealthy, http.MethodGet, "/healthz").Code)
}

func TestNewRouter_Metrics(t *testing.T) {
	r := NewRouter(testServerConfig(), Deps{Handlers: []RouteRegistrar{pingHandler{}}})
	serve(r, http.MethodGet, "/api/v1/ping")

	w := serve(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ridemeter_http_requests_total")
}

func TestCorsConfig(t *testing.T) {
	c := corsConfig("https://a.example, https://b.example")
	assert.False(t, c.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowOrigins)

	assert.True(t, corsConfig("*").AllowAllOrigins)
	assert.True(t, corsConfig("").AllowAllOrigins)
}

func TestTrafficHandler(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Kinshasa")
	require.NoError(t, err)
	model, err := traffic.NewModel(traffic.DefaultTable(), loc)
	require.NoError(t, err)

	h := NewTrafficHandler(model)
	// Wednesday 07:30 in Kinshasa
	h.now = func() time.Time { return time.Date(2024, 6, 5, 6, 30, 0, 0, time.UTC) }

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	w := serve(r, http.MethodGet, "/api/v1/traffic")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool            `json:"success"`
		Data    TrafficResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, traffic.MorningRush, body.Data.Bucket)
	assert.Equal(t, 13.0, body.Data.AverageSpeedKmh)
	assert.Equal(t, "Morning rush hour, heavy traffic", body.Data.Description)
	assert.Equal(t, "07:30", body.Data.LocalTime)
	assert.Equal(t, "Africa/Kinshasa", body.Data.Timezone)
	assert.Equal(t, "day", string(body.Data.TimeOfDay))
}
