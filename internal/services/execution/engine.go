package execution

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
)

// Compile-time interface check
var _ interfaces.ExecutionService = (*Engine)(nil)

// Config holds engine tuning.
type Config struct {
	FeeRate       float64       // proportional fee on notional value
	OracleTimeout time.Duration // bound on each price lookup
}

// Engine orchestrates validate, price, ledger-apply, persist-trade, and
// audit for one order at a time per portfolio. Balance mutations serialize
// inside the ledger, keyed by portfolio id; the engine lock only arbitrates
// order state between Submit and Cancel. Limit orders execute immediately at
// their limit price; resting and partial-fill semantics are deliberately not
// modeled.
type Engine struct {
	storage interfaces.StorageManager
	oracle  interfaces.PriceOracle
	audit   interfaces.AuditSink
	ledger  *Ledger
	logger  *common.Logger
	config  Config

	mu        sync.Mutex         // arbitrates order state between Submit and Cancel
	executing map[int64]struct{} // orders claimed by an in-flight submit
}

// NewEngine creates an execution engine with injected collaborators.
func NewEngine(storage interfaces.StorageManager, oracle interfaces.PriceOracle, audit interfaces.AuditSink, logger *common.Logger, config Config) *Engine {
	if config.FeeRate < 0 {
		config.FeeRate = 0
	}
	if config.OracleTimeout <= 0 {
		config.OracleTimeout = 2 * time.Second
	}
	return &Engine{
		storage:   storage,
		oracle:    oracle,
		audit:     audit,
		ledger:    NewLedger(storage, logger),
		logger:    logger,
		config:    config,
		executing: make(map[int64]struct{}),
	}
}

// Ledger exposes the engine's ledger for snapshot reads.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Submit runs the full pipeline for one order request. Validation and
// race-lost failures come back as a rejected result with Success=false; the
// error return is reserved for infrastructure failures that prevented the
// order from being recorded at all.
func (e *Engine) Submit(ctx context.Context, req models.OrderRequest) (*models.ExecutionResult, error) {
	orderID, err := e.storage.NextID("order")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order id: %w", err)
	}

	order := &models.Order{
		ID:          orderID,
		UserID:      req.UserID,
		PortfolioID: req.PortfolioID,
		StrategyID:  req.StrategyID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
	// The order is claimed before it is ever visible in storage, so a
	// concurrent cancel gets ErrOrderAlreadyExecuting for the whole pipeline
	// instead of racing the oracle call.
	e.markExecuting(order.ID)
	defer e.unmarkExecuting(order.ID)

	if err := e.storage.OrderStore().SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	e.recordAudit(ctx, models.AuditEventOrderSubmitted, models.AuditSeverityInfo, order,
		fmt.Sprintf("%s %s %v %s", order.Side, order.Type, order.Quantity, order.Symbol))

	// Price lookup happens outside the portfolio lock; the ledger re-checks
	// sufficiency against live state.
	oraclePrice, _, err := e.price(ctx, req.Symbol)
	if err != nil {
		return e.reject(ctx, order, fmt.Errorf("%w: %s", ErrUnknownSymbol, req.Symbol)), nil
	}
	refPrice := ReferencePrice(req, oraclePrice)

	portfolio, asset, err := e.ledger.Snapshot(ctx, req.PortfolioID, req.Symbol)
	if err != nil {
		return e.reject(ctx, order, fmt.Errorf("portfolio unavailable: %w", err)), nil
	}
	if err := ValidateOrder(req, portfolio, asset, refPrice); err != nil {
		return e.reject(ctx, order, err), nil
	}

	if err := e.transition(ctx, order, models.OrderStatusOpen); err != nil {
		return e.reject(ctx, order, err), nil
	}

	execPrice := refPrice
	fees := e.config.FeeRate * order.Quantity * execPrice

	var result *Result
	if order.Side == models.OrderSideBuy {
		result, err = e.ledger.ApplyBuy(ctx, order, execPrice, fees)
	} else {
		result, err = e.ledger.ApplySell(ctx, order, execPrice, fees)
	}
	if err != nil {
		if isValidationError(err) {
			// Race lost: the live re-check failed after the snapshot passed.
			return e.reject(ctx, order, err), nil
		}
		e.logger.Error().Err(err).Int64("order", order.ID).Msg("Ledger apply failed")
		return e.reject(ctx, order, err), nil
	}

	now := time.Now()
	order.FilledPrice = execPrice
	order.FilledQuantity = order.Quantity
	order.FilledAt = &now
	if err := e.transition(ctx, order, models.OrderStatusFilled); err != nil {
		// The ledger mutation is already committed; losing the status write is
		// an audit gap, not a money bug. Flag it at the highest severity.
		e.logger.Error().Err(err).Int64("order", order.ID).Msg("Failed to mark order filled after apply")
		e.recordAudit(ctx, models.AuditEventStateError, models.AuditSeverityCritical, order, err.Error())
	}

	e.recordAudit(ctx, models.AuditEventOrderFilled, models.AuditSeverityInfo, order,
		fmt.Sprintf("filled %v %s at %.4f, fees %.4f", order.Quantity, order.Symbol, execPrice, fees))

	return &models.ExecutionResult{
		Success:          true,
		OrderID:          order.ID,
		TradeID:          result.Trade.ID,
		ExecutedPrice:    execPrice,
		ExecutedQuantity: order.Quantity,
		Fees:             fees,
		PnL:              result.Trade.NetPnL,
	}, nil
}

// Cancel cancels a pending/open order. It fails with ErrOrderAlreadyExecuting
// while a submit holds the order, ErrNotCancelable in terminal states, and
// ErrUnauthorized for a foreign order. The load, the in-flight check, and the
// transition happen under the engine lock so a cancellation cannot interleave
// with a submit on the same order. Cancellation never touches the ledger.
func (e *Engine) Cancel(ctx context.Context, userID string, orderID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.storage.OrderStore().GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return ErrUnauthorized
	}
	if _, ok := e.executing[orderID]; ok {
		return ErrOrderAlreadyExecuting
	}
	if order.Status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrNotCancelable, order.Status)
	}

	if err := e.transition(ctx, order, models.OrderStatusCanceled); err != nil {
		return err
	}
	e.recordAudit(ctx, models.AuditEventOrderCanceled, models.AuditSeverityInfo, order, "canceled by user")
	return nil
}

// OpenOrders returns the caller's pending/open orders.
func (e *Engine) OpenOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	return e.storage.OrderStore().ListOpenOrders(ctx, userID)
}

// price queries the oracle under the engine's timeout.
func (e *Engine) price(ctx context.Context, symbol string) (float64, time.Time, error) {
	priceCtx, cancel := context.WithTimeout(ctx, e.config.OracleTimeout)
	defer cancel()
	return e.oracle.Price(priceCtx, symbol)
}

// reject moves an order to rejected and returns the failure result. The
// ledger is guaranteed untouched for the rejected order.
func (e *Engine) reject(ctx context.Context, order *models.Order, cause error) *models.ExecutionResult {
	order.RejectReason = cause.Error()
	if err := e.transition(ctx, order, models.OrderStatusRejected); err != nil {
		e.logger.Error().Err(err).Int64("order", order.ID).Msg("Failed to mark order rejected")
		e.recordAudit(ctx, models.AuditEventStateError, models.AuditSeverityCritical, order, err.Error())
	}
	e.recordAudit(ctx, models.AuditEventOrderRejected, models.AuditSeverityWarning, order, cause.Error())

	return &models.ExecutionResult{
		Success: false,
		OrderID: order.ID,
		Error:   cause.Error(),
	}
}

// transition advances the order state machine and persists the change.
func (e *Engine) transition(ctx context.Context, order *models.Order, next models.OrderStatus) error {
	if err := order.Transition(next); err != nil {
		if errors.Is(err, models.ErrInvalidStateTransition) {
			e.logger.Error().
				Int64("order", order.ID).
				Str("status", string(order.Status)).
				Str("next", string(next)).
				Msg("Invalid order state transition")
		}
		return err
	}
	if err := e.storage.OrderStore().SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to persist order %d status: %w", order.ID, err)
	}
	return nil
}

func (e *Engine) markExecuting(orderID int64) {
	e.mu.Lock()
	e.executing[orderID] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) unmarkExecuting(orderID int64) {
	e.mu.Lock()
	delete(e.executing, orderID)
	e.mu.Unlock()
}

// recordAudit emits one lifecycle event to the audit sink.
func (e *Engine) recordAudit(ctx context.Context, eventType string, severity models.AuditSeverity, order *models.Order, message string) {
	e.audit.Record(ctx, &models.AuditEvent{
		EventType:         eventType,
		Severity:          severity,
		Message:           message,
		UserID:            order.UserID,
		RelatedEntityType: "order",
		RelatedEntityID:   order.ID,
		Details: map[string]string{
			"portfolio_id": strconv.FormatInt(order.PortfolioID, 10),
			"symbol":       order.Symbol,
			"side":         string(order.Side),
			"status":       string(order.Status),
		},
	})
}
