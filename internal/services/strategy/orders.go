package strategy

import (
	"github.com/raeisisep-star/titan/internal/models"
)

// BuildOrders translates one strategy tick into order requests at the given
// market price. Pure function so each strategy type can be tested without a
// running engine.
func BuildOrders(strategy *models.Strategy, price float64) []models.OrderRequest {
	switch strategy.Type {
	case models.StrategyTypeDCA:
		return buildDCAOrders(strategy, price)
	case models.StrategyTypeGrid:
		return buildGridOrders(strategy, price)
	case models.StrategyTypeScalping:
		return buildScalpingOrders(strategy, price)
	}
	return nil
}

// buildDCAOrders produces a single market buy whose notional is the
// configured USD amount.
func buildDCAOrders(s *models.Strategy, price float64) []models.OrderRequest {
	if price <= 0 {
		return nil
	}
	return []models.OrderRequest{{
		PortfolioID: s.PortfolioID,
		UserID:      s.UserID,
		Symbol:      s.Symbol,
		Side:        models.OrderSideBuy,
		Type:        models.OrderTypeMarket,
		Quantity:    s.DCA.BuyAmountUSD / price,
		StrategyID:  s.ID,
	}}
}

// buildGridOrders places limit buys on the lower half of the grid, spaced
// below the current price. A 6-level grid at spacing 2% and price 100 yields
// buys at 98, 96 and 94.
func buildGridOrders(s *models.Strategy, price float64) []models.OrderRequest {
	if price <= 0 {
		return nil
	}
	buyLevels := s.Grid.GridLevels / 2
	requests := make([]models.OrderRequest, 0, buyLevels)
	for i := 1; i <= buyLevels; i++ {
		level := price * (1 - s.Grid.GridSpacingPct*float64(i)/100)
		if level <= 0 {
			break
		}
		requests = append(requests, models.OrderRequest{
			PortfolioID: s.PortfolioID,
			UserID:      s.UserID,
			Symbol:      s.Symbol,
			Side:        models.OrderSideBuy,
			Type:        models.OrderTypeLimit,
			Quantity:    s.Grid.BaseAmount,
			Price:       level,
			StrategyID:  s.ID,
		})
	}
	return requests
}

// buildScalpingOrders opens a market position with take-profit and stop-loss
// levels derived from the entry price.
func buildScalpingOrders(s *models.Strategy, price float64) []models.OrderRequest {
	if price <= 0 {
		return nil
	}
	return []models.OrderRequest{{
		PortfolioID: s.PortfolioID,
		UserID:      s.UserID,
		Symbol:      s.Symbol,
		Side:        models.OrderSideBuy,
		Type:        models.OrderTypeMarket,
		Quantity:    s.Scalping.TradeAmountUSD / price,
		TakeProfit:  price * (1 + s.Scalping.QuickProfitPct/100),
		StopLoss:    price * (1 - s.Scalping.StopLossPct/100),
		StrategyID:  s.ID,
	}}
}
