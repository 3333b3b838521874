package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/ridemeter/pkg/redis"
	"github.com/richxcame/ridemeter/pkg/resilience"
)

// StaticRateSource always returns the same rate
type StaticRateSource float64

// GetExchangeRate implements RateSource
func (s StaticRateSource) GetExchangeRate(ctx context.Context) (float64, error) {
	if s <= 0 {
		return 0, fmt.Errorf("static exchange rate must be positive, got %v", float64(s))
	}
	return float64(s), nil
}

// RedisRateSource reads an ops-managed rate from a Redis key. A missing key
// yields the configured fallback rate.
type RedisRateSource struct {
	client   floatGetter
	key      string
	fallback float64
	retry    resilience.RetryConfig
}

// NewRedisRateSource creates a rate source backed by key
func NewRedisRateSource(client floatGetter, key string, fallback float64) *RedisRateSource {
	return &RedisRateSource{
		client:   client,
		key:      key,
		fallback: fallback,
		retry: resilience.RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    100 * time.Millisecond,
			MaxBackoff:        time.Second,
			BackoffMultiplier: 2.0,
			EnableJitter:      true,
			RetryableChecker:  redis.RetryableChecker(),
		},
	}
}

// GetExchangeRate implements RateSource
func (s *RedisRateSource) GetExchangeRate(ctx context.Context) (float64, error) {
	result, err := resilience.Retry(ctx, s.retry, func(ctx context.Context) (interface{}, error) {
		return s.client.GetFloat64(ctx, s.key)
	})
	if err != nil {
		if redis.IsMiss(err) {
			return s.fallback, nil
		}
		return 0, fmt.Errorf("failed to read exchange rate %s: %w", s.key, err)
	}

	rate := result.(float64)
	if rate <= 0 {
		return 0, fmt.Errorf("exchange rate %s must be positive, got %v", s.key, rate)
	}
	return rate, nil
}
