package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStateTransition is returned when an order is asked to leave a
// terminal state, or to re-enter one. It always indicates a race or a
// programming bug, never normal operation.
var ErrInvalidStateTransition = errors.New("invalid order state transition")

// OrderSide is the direction of an order
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType categorizes how an order is priced
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// OrderStatus tracks the lifecycle of an order.
// pending → open → {filled, rejected, canceled}; terminal states are final.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusCanceled OrderStatus = "canceled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// Order is a single trading instruction. Orders are immutable after creation
// except for the status and fill fields, and are never physically deleted.
type Order struct {
	ID          int64       `json:"id" badgerhold:"key"`
	UserID      string      `json:"user_id" badgerhold:"index"`
	PortfolioID int64       `json:"portfolio_id" badgerhold:"index"`
	StrategyID  int64       `json:"strategy_id,omitempty"` // 0 for manual orders
	Symbol      string      `json:"symbol"`
	Side        OrderSide   `json:"side"`
	Type        OrderType   `json:"type"`
	Quantity    float64     `json:"quantity"`
	Price       float64     `json:"price,omitempty"` // limit price when Type is limit/stop_limit
	StopPrice   float64     `json:"stop_price,omitempty"`
	StopLoss    float64     `json:"stop_loss,omitempty"`
	TakeProfit  float64     `json:"take_profit,omitempty"`
	Status      OrderStatus `json:"status"`

	FilledPrice    float64    `json:"filled_price,omitempty"`
	FilledQuantity float64    `json:"filled_quantity,omitempty"`
	RejectReason   string     `json:"reject_reason,omitempty"`
	FilledAt       *time.Time `json:"filled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition moves the order to the next status, enforcing the state machine.
// Exactly one terminal transition is permitted per order; a second attempt
// returns ErrInvalidStateTransition so duplicate-execution bugs surface loudly
// instead of silently double-applying.
func (o *Order) Transition(next OrderStatus) error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s (order %d)", ErrInvalidStateTransition, o.Status, next, o.ID)
	}
	switch {
	case o.Status == OrderStatusPending && (next == OrderStatusOpen || next == OrderStatusRejected || next == OrderStatusCanceled):
	case o.Status == OrderStatusOpen && next.IsTerminal():
	default:
		return fmt.Errorf("%w: %s -> %s (order %d)", ErrInvalidStateTransition, o.Status, next, o.ID)
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}

// OrderRequest is the submission payload for a new order. StrategyID is zero
// for manual orders.
type OrderRequest struct {
	UserID      string    `json:"user_id"`
	PortfolioID int64     `json:"portfolio_id"`
	StrategyID  int64     `json:"strategy_id,omitempty"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Type        OrderType `json:"type"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price,omitempty"`
	StopPrice   float64   `json:"stop_price,omitempty"`
	StopLoss    float64   `json:"stop_loss,omitempty"`
	TakeProfit  float64   `json:"take_profit,omitempty"`
}

// Notional returns quantity × reference price, the cash value before fees.
func (r *OrderRequest) Notional(referencePrice float64) float64 {
	return r.Quantity * referencePrice
}

// ExecutionResult is the outcome of one order submission.
type ExecutionResult struct {
	Success          bool    `json:"success"`
	OrderID          int64   `json:"order_id,omitempty"`
	TradeID          int64   `json:"trade_id,omitempty"`
	ExecutedPrice    float64 `json:"executed_price,omitempty"`
	ExecutedQuantity float64 `json:"executed_quantity,omitempty"`
	Fees             float64 `json:"fees,omitempty"`
	PnL              float64 `json:"pnl,omitempty"`
	Error            string  `json:"error,omitempty"`
}
