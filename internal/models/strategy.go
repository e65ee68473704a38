package models

import (
	"fmt"
	"time"
)

// StrategyType selects which tagged config variant a strategy carries
type StrategyType string

const (
	StrategyTypeDCA      StrategyType = "dca"
	StrategyTypeGrid     StrategyType = "grid"
	StrategyTypeScalping StrategyType = "scalping"
)

// StrategyStatus tracks whether the runner considers a strategy for ticks
type StrategyStatus string

const (
	StrategyStatusActive   StrategyStatus = "active"
	StrategyStatusInactive StrategyStatus = "inactive"
	// StrategyStatusDegraded is set by the runner after repeated validation
	// failures; the strategy is skipped until explicitly reactivated.
	StrategyStatusDegraded StrategyStatus = "degraded"
)

// Strategy is a declarative order-generation rule owned by a user. The runner
// only reads strategies; creation and editing happen through the management
// surface. Exactly one config variant matching Type must be set; the variant
// is resolved at load time, never re-parsed at execution.
type Strategy struct {
	ID          int64          `json:"id" badgerhold:"key"`
	UserID      string         `json:"user_id" badgerhold:"index"`
	PortfolioID int64          `json:"portfolio_id" badgerhold:"index"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Type        StrategyType   `json:"type"`
	Status      StrategyStatus `json:"status"`

	DCA      *DCAConfig      `json:"dca,omitempty"`
	Grid     *GridConfig     `json:"grid,omitempty"`
	Scalping *ScalpingConfig `json:"scalping,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastRunAt time.Time `json:"last_run_at"`
}

// DCAConfig buys a fixed USD amount on a fixed interval.
type DCAConfig struct {
	BuyAmountUSD  float64 `json:"buy_amount_usd"`
	IntervalHours int     `json:"interval_hours"`
}

// GridConfig places a ladder of limit buys below the current price.
type GridConfig struct {
	GridLevels     int     `json:"grid_levels"`
	GridSpacingPct float64 `json:"grid_spacing_pct"` // spacing between levels, percent of current price
	BaseAmount     float64 `json:"base_amount"`      // unit quantity per level
}

// ScalpingConfig opens a market position with tight TP/SL offsets.
type ScalpingConfig struct {
	TradeAmountUSD float64 `json:"trade_amount_usd"`
	QuickProfitPct float64 `json:"quick_profit_pct"` // take-profit offset above entry, percent
	StopLossPct    float64 `json:"stop_loss_pct"`    // stop-loss offset below entry, percent
}

// Validate checks that exactly the config variant matching Type is present
// and carries usable values. A malformed strategy never reaches execution.
func (s *Strategy) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("strategy %d: symbol is required", s.ID)
	}
	switch s.Type {
	case StrategyTypeDCA:
		if s.DCA == nil || s.Grid != nil || s.Scalping != nil {
			return fmt.Errorf("strategy %d: type %s requires exactly the dca config", s.ID, s.Type)
		}
		if s.DCA.BuyAmountUSD <= 0 {
			return fmt.Errorf("strategy %d: dca buy_amount_usd must be positive", s.ID)
		}
		if s.DCA.IntervalHours <= 0 {
			return fmt.Errorf("strategy %d: dca interval_hours must be positive", s.ID)
		}
	case StrategyTypeGrid:
		if s.Grid == nil || s.DCA != nil || s.Scalping != nil {
			return fmt.Errorf("strategy %d: type %s requires exactly the grid config", s.ID, s.Type)
		}
		if s.Grid.GridLevels < 2 {
			return fmt.Errorf("strategy %d: grid_levels must be at least 2", s.ID)
		}
		if s.Grid.GridSpacingPct <= 0 || s.Grid.BaseAmount <= 0 {
			return fmt.Errorf("strategy %d: grid spacing and base_amount must be positive", s.ID)
		}
	case StrategyTypeScalping:
		if s.Scalping == nil || s.DCA != nil || s.Grid != nil {
			return fmt.Errorf("strategy %d: type %s requires exactly the scalping config", s.ID, s.Type)
		}
		if s.Scalping.TradeAmountUSD <= 0 {
			return fmt.Errorf("strategy %d: scalping trade_amount_usd must be positive", s.ID)
		}
		if s.Scalping.QuickProfitPct <= 0 || s.Scalping.StopLossPct <= 0 {
			return fmt.Errorf("strategy %d: scalping profit/stop offsets must be positive", s.ID)
		}
	default:
		return fmt.Errorf("strategy %d: unknown type %q", s.ID, s.Type)
	}
	return nil
}
