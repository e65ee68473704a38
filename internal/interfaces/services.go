package interfaces

import (
	"context"

	"github.com/raeisisep-star/titan/internal/models"
)

// ExecutionService accepts orders, executes them against the portfolio
// ledger, and records the resulting trades.
type ExecutionService interface {
	// Submit runs the full validate → price → ledger-apply → persist → audit
	// pipeline for one order. Validation failures are returned as a rejected
	// result, not an error; the error return is for infrastructure failures.
	Submit(ctx context.Context, req models.OrderRequest) (*models.ExecutionResult, error)

	// Cancel cancels an order that has not started executing.
	Cancel(ctx context.Context, userID string, orderID int64) error

	// OpenOrders returns the caller's orders in pending/open status.
	OpenOrders(ctx context.Context, userID string) ([]*models.Order, error)
}

// StrategyRunner turns active strategies into order submissions on a schedule.
type StrategyRunner interface {
	// RunStrategy executes one tick of a single strategy, returning one
	// result per generated order.
	RunStrategy(ctx context.Context, strategyID int64) ([]*models.ExecutionResult, error)

	// Reactivate clears a degraded strategy back to active and resets its
	// failure counter.
	Reactivate(ctx context.Context, strategyID int64) error
}
