package interfaces

import (
	"context"
	"time"

	"github.com/raeisisep-star/titan/internal/models"
)

// PriceOracle supplies a current price for a symbol. Implementations may be a
// live feed, a rate-limited HTTP poller, or a deterministic test fixture. A
// slow source must respect ctx and fall back to a cached value rather than
// stall order processing.
type PriceOracle interface {
	// Price returns the current price and the time it was observed.
	Price(ctx context.Context, symbol string) (float64, time.Time, error)
}

// AuditSink accepts order/trade lifecycle events. The storage-backed
// implementation appends to the audit store; tests use an in-memory sink.
type AuditSink interface {
	Record(ctx context.Context, event *models.AuditEvent)
}
