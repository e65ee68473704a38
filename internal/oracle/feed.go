package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
)

// Compile-time interface check
var _ interfaces.PriceOracle = (*Feed)(nil)

// Feed maintains a websocket subscription to a streaming price source and
// answers Price from the last tick seen per symbol. The read loop reconnects
// with exponential backoff; Price never blocks on the connection.
type Feed struct {
	url     string
	symbols []string
	logger  *common.Logger

	mu     sync.RWMutex
	last   map[string]cachedPrice
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// feedTick is one streamed price update.
type feedTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// NewFeed creates a feed for the given subscription symbols.
func NewFeed(url string, symbols []string, logger *common.Logger) *Feed {
	return &Feed{
		url:     url,
		symbols: symbols,
		logger:  logger,
		last:    make(map[string]cachedPrice),
	}
}

// Start launches the read loop. Safe to call once.
func (f *Feed) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(ctx)
	}()
}

// Stop terminates the read loop and waits for it to exit.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
}

// Price returns the last streamed price for a symbol.
func (f *Feed) Price(_ context.Context, symbol string) (float64, time.Time, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tick, ok := f.last[symbol]
	if !ok {
		return 0, time.Time{}, ErrNoPrice
	}
	return tick.value, tick.at, nil
}

// run dials, subscribes, and consumes ticks until ctx is canceled,
// reconnecting with capped exponential backoff.
func (f *Feed) run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		err := f.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn().Err(err).Dur("backoff", backoff).Msg("Price feed disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// consume runs one connection lifetime: dial, subscribe, read until error.
func (f *Feed) consume(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial price feed: %w", err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"op":      "subscribe",
		"symbols": f.symbols,
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	f.logger.Info().Str("url", f.url).Int("symbols", len(f.symbols)).Msg("Price feed connected")

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		var tick feedTick
		if err := json.Unmarshal(msg, &tick); err != nil || tick.Symbol == "" || tick.Price <= 0 {
			continue // heartbeats and non-tick frames
		}

		f.mu.Lock()
		f.last[tick.Symbol] = cachedPrice{value: tick.Price, at: time.Now()}
		f.mu.Unlock()
	}
}
