// Package strategy provides the runner that turns declarative strategy
// configurations into order submissions on a schedule.
package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
)

// Compile-time interface check
var _ interfaces.StrategyRunner = (*Runner)(nil)

// Runner executes one tick of each active strategy on its cadence. Generated
// orders go through the same validate/execute path as manual orders; the
// runner has no bypass of balance checks. A strategy whose last
// maxFailures runs all failed validation is marked degraded and skipped
// until explicitly reactivated.
type Runner struct {
	storage     interfaces.StorageManager
	engine      interfaces.ExecutionService
	oracle      interfaces.PriceOracle
	audit       interfaces.AuditSink
	logger      *common.Logger
	maxFailures int
	now         func() time.Time // injectable clock for testing

	mu       sync.Mutex
	failures map[int64]int // consecutive fully-failed runs per strategy
}

// NewRunner creates a strategy runner with injected collaborators.
func NewRunner(storage interfaces.StorageManager, engine interfaces.ExecutionService, oracle interfaces.PriceOracle, audit interfaces.AuditSink, logger *common.Logger, maxFailures int) *Runner {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Runner{
		storage:     storage,
		engine:      engine,
		oracle:      oracle,
		audit:       audit,
		logger:      logger,
		maxFailures: maxFailures,
		now:         time.Now,
		failures:    make(map[int64]int),
	}
}

// RunStrategy executes one tick of a single strategy, returning one result
// per generated order.
func (r *Runner) RunStrategy(ctx context.Context, strategyID int64) ([]*models.ExecutionResult, error) {
	strategy, err := r.storage.StrategyStore().GetStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if strategy.Status != models.StrategyStatusActive {
		return nil, fmt.Errorf("strategy %d is %s, not active", strategyID, strategy.Status)
	}
	if err := strategy.Validate(); err != nil {
		return nil, fmt.Errorf("strategy config rejected: %w", err)
	}

	price, _, err := r.oracle.Price(ctx, strategy.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to price %s for strategy %d: %w", strategy.Symbol, strategyID, err)
	}

	requests := BuildOrders(strategy, price)
	results := make([]*models.ExecutionResult, 0, len(requests))
	rejected := 0
	for _, req := range requests {
		result, err := r.engine.Submit(ctx, req)
		if err != nil {
			return results, fmt.Errorf("failed to submit strategy order: %w", err)
		}
		if !result.Success {
			rejected++
		}
		results = append(results, result)
	}

	strategy.LastRunAt = r.now()
	if err := r.storage.StrategyStore().SaveStrategy(ctx, strategy); err != nil {
		r.logger.Warn().Err(err).Int64("strategy", strategyID).Msg("Failed to record strategy run time")
	}

	r.trackFailures(ctx, strategy, len(requests), rejected)

	r.logger.Info().
		Int64("strategy", strategyID).
		Str("type", string(strategy.Type)).
		Int("orders", len(requests)).
		Int("rejected", rejected).
		Msg("Strategy tick complete")

	r.audit.Record(ctx, &models.AuditEvent{
		EventType:         models.AuditEventStrategyRun,
		Severity:          models.AuditSeverityInfo,
		Message:           fmt.Sprintf("strategy %d ran: %d orders, %d rejected", strategyID, len(requests), rejected),
		UserID:            strategy.UserID,
		RelatedEntityType: "strategy",
		RelatedEntityID:   strategyID,
		Details: map[string]string{
			"type":     string(strategy.Type),
			"orders":   fmt.Sprintf("%d", len(requests)),
			"rejected": fmt.Sprintf("%d", rejected),
		},
	})

	return results, nil
}

// Reactivate clears a degraded strategy back to active and resets its
// failure counter.
func (r *Runner) Reactivate(ctx context.Context, strategyID int64) error {
	strategy, err := r.storage.StrategyStore().GetStrategy(ctx, strategyID)
	if err != nil {
		return err
	}
	if strategy.Status != models.StrategyStatusDegraded {
		return fmt.Errorf("strategy %d is %s, not degraded", strategyID, strategy.Status)
	}

	if err := r.storage.StrategyStore().UpdateStatus(ctx, strategyID, models.StrategyStatusActive); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.failures, strategyID)
	r.mu.Unlock()

	r.audit.Record(ctx, &models.AuditEvent{
		EventType:         models.AuditEventStrategyReactivated,
		Severity:          models.AuditSeverityInfo,
		Message:           fmt.Sprintf("strategy %d reactivated", strategyID),
		UserID:            strategy.UserID,
		RelatedEntityType: "strategy",
		RelatedEntityID:   strategyID,
	})
	return nil
}

// trackFailures counts consecutive runs where every generated order was
// rejected, and degrades the strategy at the threshold so a tight failure
// loop cannot generate unbounded rejected orders.
func (r *Runner) trackFailures(ctx context.Context, strategy *models.Strategy, generated, rejected int) {
	if generated == 0 {
		return
	}

	r.mu.Lock()
	if rejected < generated {
		delete(r.failures, strategy.ID)
		r.mu.Unlock()
		return
	}
	r.failures[strategy.ID]++
	count := r.failures[strategy.ID]
	r.mu.Unlock()

	if count < r.maxFailures {
		return
	}

	if err := r.storage.StrategyStore().UpdateStatus(ctx, strategy.ID, models.StrategyStatusDegraded); err != nil {
		r.logger.Error().Err(err).Int64("strategy", strategy.ID).Msg("Failed to degrade strategy")
		return
	}

	r.logger.Warn().
		Int64("strategy", strategy.ID).
		Int("consecutive_failures", count).
		Msg("Strategy degraded after repeated validation failures")

	r.audit.Record(ctx, &models.AuditEvent{
		EventType:         models.AuditEventStrategyDegraded,
		Severity:          models.AuditSeverityWarning,
		Message:           fmt.Sprintf("strategy %d degraded after %d consecutive failed runs", strategy.ID, count),
		UserID:            strategy.UserID,
		RelatedEntityType: "strategy",
		RelatedEntityID:   strategy.ID,
	})
}

// due reports whether a strategy should run on this scheduler tick. DCA
// strategies honor their configured interval; grid and scalping run every
// tick.
func (r *Runner) due(strategy *models.Strategy) bool {
	if strategy.Type == models.StrategyTypeDCA && strategy.DCA != nil {
		interval := time.Duration(strategy.DCA.IntervalHours) * time.Hour
		return strategy.LastRunAt.IsZero() || r.now().Sub(strategy.LastRunAt) >= interval
	}
	return true
}
