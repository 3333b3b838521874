package currency

import "context"

// RateSource supplies the base→display exchange rate. The value is owned by
// operations; the fare pipeline only reads it.
type RateSource interface {
	GetExchangeRate(ctx context.Context) (float64, error)
}

// floatGetter is the slice of the Redis client the rate source needs
type floatGetter interface {
	GetFloat64(ctx context.Context, key string) (float64, error)
}
