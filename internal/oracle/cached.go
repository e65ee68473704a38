package oracle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
)

// Compile-time interface check
var _ interfaces.PriceOracle = (*Cached)(nil)

// cachedPrice is one remembered observation.
type cachedPrice struct {
	value float64
	at    time.Time
}

// Cached wraps a live PriceOracle with a last-known-value cache. When the
// live source errors or exceeds the configured timeout, the cached value is
// returned with its original observation timestamp so a slow feed cannot
// stall order processing. A symbol that has never resolved returns
// ErrNoPrice.
type Cached struct {
	source  interfaces.PriceOracle
	timeout time.Duration
	maxAge  time.Duration
	logger  *common.Logger

	mu    sync.RWMutex
	cache map[string]cachedPrice
	now   func() time.Time // injectable clock for testing
}

// NewCached creates a caching oracle over a live source.
func NewCached(source interfaces.PriceOracle, timeout, maxAge time.Duration, logger *common.Logger) *Cached {
	return &Cached{
		source:  source,
		timeout: timeout,
		maxAge:  maxAge,
		logger:  logger,
		cache:   make(map[string]cachedPrice),
		now:     time.Now,
	}
}

// Price queries the live source under a bounded timeout, falling back to the
// last cached value on failure.
func (c *Cached) Price(ctx context.Context, symbol string) (float64, time.Time, error) {
	liveCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	value, at, err := c.source.Price(liveCtx, symbol)
	if err == nil {
		c.mu.Lock()
		c.cache[symbol] = cachedPrice{value: value, at: at}
		c.mu.Unlock()
		return value, at, nil
	}

	if errors.Is(err, ErrUnknownSymbol) {
		return 0, time.Time{}, ErrUnknownSymbol
	}

	c.mu.RLock()
	cached, ok := c.cache[symbol]
	c.mu.RUnlock()
	if !ok {
		return 0, time.Time{}, ErrNoPrice
	}

	age := c.now().Sub(cached.at)
	if age > c.maxAge {
		c.logger.Warn().
			Str("symbol", symbol).
			Dur("age", age).
			Err(err).
			Msg("Live price unavailable, serving stale cached value")
	} else {
		c.logger.Debug().Str("symbol", symbol).Err(err).Msg("Live price unavailable, serving cached value")
	}

	return cached.value, cached.at, nil
}

// Warm pre-loads a cached value, used at startup and by tests.
func (c *Cached) Warm(symbol string, value float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[symbol] = cachedPrice{value: value, at: at}
}
