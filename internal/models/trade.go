package models

import "time"

// Trade records one successful execution. Created exactly once per filled
// order; ExitPrice/ExitTime stay nil until a closing order resolves the
// position.
type Trade struct {
	ID          int64      `json:"id" badgerhold:"key"`
	OrderID     int64      `json:"order_id" badgerhold:"index"`
	PortfolioID int64      `json:"portfolio_id" badgerhold:"index"`
	UserID      string     `json:"user_id"`
	Symbol      string     `json:"symbol"`
	Side        OrderSide  `json:"side"`
	EntryPrice  float64    `json:"entry_price"`
	ExitPrice   *float64   `json:"exit_price,omitempty"`
	Quantity    float64    `json:"quantity"`
	Fees        float64    `json:"fees"`
	NetPnL      float64    `json:"net_pnl"` // realized PnL net of fees, zero for opening buys
	EntryTime   time.Time  `json:"entry_time"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
}
