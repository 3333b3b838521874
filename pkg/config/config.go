package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Routing  RoutingConfig
	Pricing  PricingConfig
	Billing  BillingConfig
	Zones    ZonesConfig
	Tracing  TracingConfig
	Sentry   SentryConfig
	Client   ClientConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	Timezone       string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int    // seconds, per-request handler budget
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int
	MinConns      int
	MigrateOnBoot bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration for billing events
type NATSConfig struct {
	URL           string
	Enabled       bool
	SubjectPrefix string
}

// RoutingConfig configures the external directions provider
type RoutingConfig struct {
	GoogleMapsAPIKey        string
	TimeoutSeconds          int
	BreakerIntervalSeconds  int
	BreakerTimeoutSeconds   int
	BreakerFailureThreshold int
}

// PricingConfig holds tariff-independent pricing knobs.
// Monetary values are expressed in BaseCurrency.
type PricingConfig struct {
	BaseCurrency          string
	DisplayCurrency       string
	ExchangeRate          float64 // DisplayCurrency units per 1 BaseCurrency
	ExchangeRateKey       string  // Redis key holding the live rate
	ExchangeRateRefresh   int     // seconds
	WalletTierThreshold   float64
	WalletTierPct         float64
	FallbackFare          float64
	PlatformCommissionPct float64
	RoundingMode          string // standard, ceiling, floor, bankers or none
}

// BillingConfig holds live meter timings
type BillingConfig struct {
	FreeWaitingSeconds   int
	TickMillis           int
	PollSeconds          int
	PollTimeoutSeconds   int
	DegradedGraceSeconds int
}

// ZonesConfig lists remote zones as H3 cells
type ZonesConfig struct {
	RemoteCells      []string
	RemoteResolution int
}

// TracingConfig configures the OTLP exporter
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

// SentryConfig configures error reporting
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// ClientConfig is used by the meter runner to reach the API
type ClientConfig struct {
	APIBaseURL string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			Timezone:       getEnv("TIMEZONE", "Africa/Kinshasa"),
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 8),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "ridemeter"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 5),
			MigrateOnBoot: getEnvAsBool("DB_MIGRATE_ON_BOOT", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled:       getEnvAsBool("NATS_ENABLED", false),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "rides"),
		},
		Routing: RoutingConfig{
			GoogleMapsAPIKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
			TimeoutSeconds:          getEnvAsInt("ROUTING_TIMEOUT", 5),
			BreakerIntervalSeconds:  getEnvAsInt("ROUTING_BREAKER_INTERVAL", 60),
			BreakerTimeoutSeconds:   getEnvAsInt("ROUTING_BREAKER_TIMEOUT", 30),
			BreakerFailureThreshold: getEnvAsInt("ROUTING_BREAKER_FAILURES", 5),
		},
		Pricing: PricingConfig{
			BaseCurrency:          getEnv("PRICING_BASE_CURRENCY", "USD"),
			DisplayCurrency:       getEnv("PRICING_DISPLAY_CURRENCY", "CDF"),
			ExchangeRate:          getEnvAsFloat("PRICING_EXCHANGE_RATE", 2800),
			ExchangeRateKey:       getEnv("PRICING_EXCHANGE_RATE_KEY", "pricing:exchange_rate"),
			ExchangeRateRefresh:   getEnvAsInt("PRICING_EXCHANGE_RATE_REFRESH", 300),
			WalletTierThreshold:   getEnvAsFloat("PRICING_WALLET_TIER_THRESHOLD", 20),
			WalletTierPct:         getEnvAsFloat("PRICING_WALLET_TIER_PCT", 5),
			FallbackFare:          getEnvAsFloat("PRICING_FALLBACK_FARE", 10),
			PlatformCommissionPct: getEnvAsFloat("PRICING_COMMISSION_PCT", 20),
			RoundingMode:          getEnv("PRICING_ROUNDING_MODE", "standard"),
		},
		Billing: BillingConfig{
			FreeWaitingSeconds:   getEnvAsInt("BILLING_FREE_WAITING_SECONDS", 600),
			TickMillis:           getEnvAsInt("BILLING_TICK_MILLIS", 1000),
			PollSeconds:          getEnvAsInt("BILLING_POLL_SECONDS", 3),
			PollTimeoutSeconds:   getEnvAsInt("BILLING_POLL_TIMEOUT", 5),
			DegradedGraceSeconds: getEnvAsInt("BILLING_DEGRADED_GRACE", 30),
		},
		Zones: ZonesConfig{
			RemoteCells:      getEnvAsList("REMOTE_ZONE_CELLS"),
			RemoteResolution: getEnvAsInt("REMOTE_ZONE_RESOLUTION", 7),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvAsFloat("TRACING_SAMPLE_RATIO", 0.1),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
		Client: ClientConfig{
			APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		},
	}

	if cfg.Pricing.ExchangeRate <= 0 {
		return nil, fmt.Errorf("PRICING_EXCHANGE_RATE must be positive, got %v", cfg.Pricing.ExchangeRate)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as migrate expects
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// RoutingTimeout returns the provider call budget
func (c *RoutingConfig) RoutingTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
