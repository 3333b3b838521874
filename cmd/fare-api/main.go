package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/ridemeter/internal/api"
	"github.com/richxcame/ridemeter/internal/billing"
	"github.com/richxcame/ridemeter/internal/currency"
	"github.com/richxcame/ridemeter/internal/geo"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/promos"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/internal/routing"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/internal/traffic"
	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/richxcame/ridemeter/pkg/database"
	"github.com/richxcame/ridemeter/pkg/health"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/redis"
	"github.com/richxcame/ridemeter/pkg/resilience"
	"github.com/richxcame/ridemeter/pkg/tracing"
	"go.uber.org/zap"
)

const serviceName = "fare-api"

// readiness checks
const (
	readinessTimeout  = 3 * time.Second
	readinessCacheTTL = 5 * time.Second
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Server.Environment,
			Release:          api.Version,
			AttachStacktrace: true,
		}); err != nil {
			logger.Warn("sentry disabled", zap.Error(err))
			cfg.Sentry.Enabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing, serviceName)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	// Database
	if cfg.Database.MigrateOnBoot {
		if err := database.Migrate(cfg.Database.URL()); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}
	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)

	db, err := database.NewSQLDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	healthChecks := map[string]health.Checker{
		"database": health.CompositeChecker("postgres", map[string]health.Checker{
			"pool": health.PoolChecker(pool),
			"sql":  health.DatabaseChecker(db),
		}),
	}

	// Exchange rate: Redis when reachable, the configured rate otherwise
	var rateSource currency.RateSource = currency.StaticRateSource(cfg.Pricing.ExchangeRate)
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using configured exchange rate", zap.Error(err))
	} else {
		defer redisClient.Close()
		rateSource = currency.NewRedisRateSource(redisClient, cfg.Pricing.ExchangeRateKey, cfg.Pricing.ExchangeRate)
		healthChecks["redis"] = health.RedisChecker(redisClient.Client)
	}

	rates := currency.NewRefresher(rateSource, cfg.Pricing.BaseCurrency, cfg.Pricing.DisplayCurrency,
		cfg.Pricing.ExchangeRate, time.Duration(cfg.Pricing.ExchangeRateRefresh)*time.Second)
	_ = rates.Load(ctx)
	go rates.Run(ctx)

	// Routing
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.String("timezone", cfg.Server.Timezone), zap.Error(err))
	}
	trafficModel, err := traffic.NewModel(traffic.DefaultTable(), loc)
	if err != nil {
		logger.Fatal("invalid traffic table", zap.Error(err))
	}

	var provider routing.Provider = routing.NoopProvider{}
	if cfg.Routing.GoogleMapsAPIKey != "" {
		gm, err := routing.NewGoogleMapsProvider(cfg.Routing.GoogleMapsAPIKey)
		if err != nil {
			logger.Fatal("failed to init routing provider", zap.Error(err))
		}
		provider = gm
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, estimates use the geometric fallback")
	}
	breaker := resilience.NewCircuitBreaker(resilience.BuildSettings("routing",
		cfg.Routing.BreakerIntervalSeconds, cfg.Routing.BreakerTimeoutSeconds, cfg.Routing.BreakerFailureThreshold, 1), resilience.GracefulDegradation("routing"))
	estimator := routing.NewEstimator(provider, trafficModel, breaker,
		routing.WithTimeout(time.Duration(cfg.Routing.TimeoutSeconds)*time.Second))

	zones, err := geo.NewZoneIndex(cfg.Zones.RemoteCells, cfg.Zones.RemoteResolution)
	if err != nil {
		logger.Fatal("invalid remote zones", zap.Error(err))
	}

	// Pricing
	table := tariffs.DefaultTable()
	if err := table.Validate(); err != nil {
		logger.Fatal("invalid tariff table", zap.Error(err))
	}
	if _, ok := currency.ParseRoundingMode(cfg.Pricing.RoundingMode); !ok {
		logger.Fatal("invalid rounding mode", zap.String("mode", cfg.Pricing.RoundingMode))
	}
	promoRepo := promos.NewRepository(pool)
	pricingService := pricing.NewService(pricing.NewCalculator(table), estimator, trafficModel, rates, zones,
		promoRepo, promoRepo, &cfg.Pricing)

	// Rides and the meter
	rideRepo := rides.NewRepository(db)
	rideService := rides.NewService(rideRepo)

	router := api.NewRouter(&cfg.Server, api.Deps{
		Handlers: []api.RouteRegistrar{
			pricing.NewHandler(pricingService, table),
			promos.NewHandler(promoRepo, rates.Current().DecimalPlaces),
			rides.NewHandler(rideService, pricingService),
			billing.NewHandler(rideRepo, pricingService, time.Duration(cfg.Billing.FreeWaitingSeconds)*time.Second),
			api.NewTrafficHandler(trafficModel),
		},
		HealthChecks: health.Readiness(healthChecks, readinessTimeout, readinessCacheTTL),
		Sentry:       cfg.Sentry.Enabled,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("fare api starting", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", zap.Error(err))
	}
}
