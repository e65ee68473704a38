package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

type tradeStorage struct {
	store  *Store
	logger *common.Logger
}

// NewTradeStorage creates a new TradeStore backed by BadgerHold.
func NewTradeStorage(store *Store, logger *common.Logger) *tradeStorage {
	return &tradeStorage{store: store, logger: logger}
}

func (s *tradeStorage) GetTrade(_ context.Context, id int64) (*models.Trade, error) {
	var trade models.Trade
	err := s.store.db.Get(id, &trade)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("trade %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trade %d: %w", id, err)
	}
	return &trade, nil
}

func (s *tradeStorage) SaveTrade(_ context.Context, trade *models.Trade) error {
	if err := s.store.db.Upsert(trade.ID, trade); err != nil {
		return fmt.Errorf("failed to save trade %d: %w", trade.ID, err)
	}
	s.logger.Debug().Int64("trade", trade.ID).Int64("order", trade.OrderID).Msg("Trade saved")
	return nil
}

func (s *tradeStorage) ListTradesByPortfolio(_ context.Context, portfolioID int64) ([]*models.Trade, error) {
	var trades []*models.Trade
	if err := s.store.db.Find(&trades, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("failed to list trades for portfolio %d: %w", portfolioID, err)
	}
	return trades, nil
}

func (s *tradeStorage) GetTradeByOrder(_ context.Context, orderID int64) (*models.Trade, error) {
	var trades []*models.Trade
	if err := s.store.db.Find(&trades, badgerhold.Where("OrderID").Eq(orderID)); err != nil {
		return nil, fmt.Errorf("failed to find trade for order %d: %w", orderID, err)
	}
	if len(trades) == 0 {
		return nil, nil
	}
	return trades[0], nil
}
