package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

type orderStorage struct {
	store  *Store
	logger *common.Logger
}

// NewOrderStorage creates a new OrderStore backed by BadgerHold.
func NewOrderStorage(store *Store, logger *common.Logger) *orderStorage {
	return &orderStorage{store: store, logger: logger}
}

func (s *orderStorage) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.store.db.Get(id, &order)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

func (s *orderStorage) SaveOrder(_ context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = order.UpdatedAt
	}
	if err := s.store.db.Upsert(order.ID, order); err != nil {
		return fmt.Errorf("failed to save order %d: %w", order.ID, err)
	}
	s.logger.Debug().Int64("order", order.ID).Str("status", string(order.Status)).Msg("Order saved")
	return nil
}

func (s *orderStorage) ListOpenOrders(_ context.Context, userID string) ([]*models.Order, error) {
	var orders []*models.Order
	query := badgerhold.Where("UserID").Eq(userID).
		And("Status").In(models.OrderStatusOpen, models.OrderStatusPending)
	if err := s.store.db.Find(&orders, query); err != nil {
		return nil, fmt.Errorf("failed to list open orders for %s: %w", userID, err)
	}
	return orders, nil
}

func (s *orderStorage) ListOrdersByPortfolio(_ context.Context, portfolioID int64) ([]*models.Order, error) {
	var orders []*models.Order
	if err := s.store.db.Find(&orders, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("failed to list orders for portfolio %d: %w", portfolioID, err)
	}
	return orders, nil
}
