package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Checker reports nil when a dependency is healthy
type Checker func() error

// PingTimeout bounds a single ping
const PingTimeout = 2 * time.Second

// DatabaseChecker pings the database/sql handle the rides repository writes through
func DatabaseChecker(db *sql.DB) Checker {
	return func() error {
		if db == nil {
			return errors.New("database connection is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
		defer cancel()
		return db.PingContext(ctx)
	}
}

// PoolChecker pings the pgx pool behind the wallet and promo lookups
func PoolChecker(pool *pgxpool.Pool) Checker {
	return func() error {
		if pool == nil {
			return errors.New("database pool is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// RedisChecker pings the exchange rate store
func RedisChecker(client *redis.Client) Checker {
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// CompositeChecker runs every checker and joins failures as "name.check: err"
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		keys := make([]string, 0, len(checkers))
		for k := range checkers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var failures []string
		for _, k := range keys {
			if err := checkers[k](); err != nil {
				failures = append(failures, fmt.Sprintf("%s.%s: %v", name, k, err))
			}
		}
		if len(failures) > 0 {
			return errors.New(strings.Join(failures, "; "))
		}
		return nil
	}
}

// AsyncChecker bounds a checker by timeout. A hung checker keeps its goroutine.
func AsyncChecker(checker Checker, timeout time.Duration) Checker {
	return func() error {
		done := make(chan error, 1)
		go func() { done <- checker() }()

		select {
		case err := <-done:
			return err
		case <-time.After(timeout):
			return fmt.Errorf("health check timeout after %v", timeout)
		}
	}
}

// CachedChecker memoizes a checker's result for cacheTTL
type CachedChecker struct {
	checker   Checker
	cacheTTL  time.Duration
	now       func() time.Time
	mu        sync.Mutex
	lastCheck time.Time
	lastErr   error
}

// NewCachedChecker wraps checker with a result cache
func NewCachedChecker(checker Checker, cacheTTL time.Duration) *CachedChecker {
	return &CachedChecker{checker: checker, cacheTTL: cacheTTL, now: time.Now}
}

// Check returns the cached result or runs the checker when stale
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastCheck.IsZero() && now.Sub(c.lastCheck) < c.cacheTTL {
		return c.lastErr
	}
	c.lastErr = c.checker()
	c.lastCheck = now
	return c.lastErr
}

// Readiness turns named checkers into the checks served on /readyz, each
// bounded by timeout and cached for cacheTTL
func Readiness(checks map[string]Checker, timeout, cacheTTL time.Duration) map[string]func() error {
	out := make(map[string]func() error, len(checks))
	for name, check := range checks {
		out[name] = NewCachedChecker(AsyncChecker(check, timeout), cacheTTL).Check
	}
	return out
}
