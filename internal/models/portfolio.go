// Package models defines data structures for Titan
package models

import (
	"strconv"
	"time"
)

// Portfolio holds the authoritative cash state for one user's portfolio.
// Cash and asset quantities are mutated only by the portfolio ledger.
// Invariant at every quiescent point: AvailableBalance + LockedBalance == BalanceUSD.
type Portfolio struct {
	ID               int64     `json:"id" badgerhold:"key"`
	UserID           string    `json:"user_id" badgerhold:"index"`
	Name             string    `json:"name"`
	BalanceUSD       float64   `json:"balance_usd"`       // total cash-equivalent value
	AvailableBalance float64   `json:"available_balance"` // spendable cash
	LockedBalance    float64   `json:"locked_balance"`    // reserved for open orders
	TotalPnL         float64   `json:"total_pnl"`
	DailyPnL         float64   `json:"daily_pnl"`
	Archived         bool      `json:"archived"` // portfolios are never deleted, only archived
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the portfolio, used for snapshot reads and
// for staging ledger mutations before they are committed.
func (p *Portfolio) Clone() *Portfolio {
	cp := *p
	return &cp
}

// PortfolioAsset is a held position, unique per (portfolio, symbol).
// Amount is never negative; a fully liquidated position is retained with
// Amount == 0 for audit history.
type PortfolioAsset struct {
	Key           string    `json:"key" badgerhold:"key"` // "<portfolioID>/<symbol>"
	PortfolioID   int64     `json:"portfolio_id" badgerhold:"index"`
	Symbol        string    `json:"symbol"`
	Amount        float64   `json:"amount"`
	AvgBuyPrice   float64   `json:"avg_buy_price"` // volume-weighted cost basis
	CurrentPrice  float64   `json:"current_price"`
	TotalValueUSD float64   `json:"total_value_usd"` // Amount * CurrentPrice
	PnLUSD        float64   `json:"pnl_usd"`         // TotalValueUSD - Amount*AvgBuyPrice
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssetKey builds the storage key for a (portfolio, symbol) pair.
func AssetKey(portfolioID int64, symbol string) string {
	return strconv.FormatInt(portfolioID, 10) + "/" + symbol
}

// Clone returns a deep copy of the asset.
func (a *PortfolioAsset) Clone() *PortfolioAsset {
	cp := *a
	return &cp
}

// Revalue refreshes the derived value fields against a current price.
func (a *PortfolioAsset) Revalue(price float64) {
	a.CurrentPrice = price
	a.TotalValueUSD = a.Amount * price
	a.PnLUSD = a.TotalValueUSD - a.Amount*a.AvgBuyPrice
}
