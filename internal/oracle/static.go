package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/raeisisep-star/titan/internal/interfaces"
)

// Compile-time interface check
var _ interfaces.PriceOracle = (*Static)(nil)

// Static is a deterministic in-memory oracle for tests and local runs.
type Static struct {
	mu     sync.RWMutex
	prices map[string]float64
	now    func() time.Time // injectable clock for testing
}

// NewStatic creates a static oracle seeded with the given prices.
func NewStatic(prices map[string]float64) *Static {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &Static{prices: cp, now: time.Now}
}

// Set updates the price for a symbol.
func (s *Static) Set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Price returns the configured price for a symbol.
func (s *Static) Price(_ context.Context, symbol string) (float64, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[symbol]
	if !ok {
		return 0, time.Time{}, ErrUnknownSymbol
	}
	return price, s.now(), nil
}
