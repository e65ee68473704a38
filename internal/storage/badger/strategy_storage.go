package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

type strategyStorage struct {
	store  *Store
	logger *common.Logger
}

// NewStrategyStorage creates a new StrategyStore backed by BadgerHold.
func NewStrategyStorage(store *Store, logger *common.Logger) *strategyStorage {
	return &strategyStorage{store: store, logger: logger}
}

func (s *strategyStorage) GetStrategy(_ context.Context, id int64) (*models.Strategy, error) {
	var strategy models.Strategy
	err := s.store.db.Get(id, &strategy)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("strategy %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get strategy %d: %w", id, err)
	}
	return &strategy, nil
}

func (s *strategyStorage) SaveStrategy(_ context.Context, strategy *models.Strategy) error {
	if err := strategy.Validate(); err != nil {
		return fmt.Errorf("failed to save strategy: %w", err)
	}
	strategy.UpdatedAt = time.Now()
	if strategy.CreatedAt.IsZero() {
		strategy.CreatedAt = strategy.UpdatedAt
	}
	if err := s.store.db.Upsert(strategy.ID, strategy); err != nil {
		return fmt.Errorf("failed to save strategy %d: %w", strategy.ID, err)
	}
	s.logger.Debug().Int64("strategy", strategy.ID).Str("type", string(strategy.Type)).Msg("Strategy saved")
	return nil
}

func (s *strategyStorage) ListActiveStrategies(_ context.Context) ([]*models.Strategy, error) {
	var strategies []*models.Strategy
	if err := s.store.db.Find(&strategies, badgerhold.Where("Status").Eq(models.StrategyStatusActive)); err != nil {
		return nil, fmt.Errorf("failed to list active strategies: %w", err)
	}
	return strategies, nil
}

func (s *strategyStorage) ListStrategies(_ context.Context, userID string) ([]*models.Strategy, error) {
	var strategies []*models.Strategy
	if err := s.store.db.Find(&strategies, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to list strategies for %s: %w", userID, err)
	}
	return strategies, nil
}

func (s *strategyStorage) UpdateStatus(ctx context.Context, id int64, status models.StrategyStatus) error {
	strategy, err := s.GetStrategy(ctx, id)
	if err != nil {
		return err
	}
	strategy.Status = status
	strategy.UpdatedAt = time.Now()
	if err := s.store.db.Upsert(strategy.ID, strategy); err != nil {
		return fmt.Errorf("failed to update strategy %d status: %w", id, err)
	}
	s.logger.Info().Int64("strategy", id).Str("status", string(status)).Msg("Strategy status updated")
	return nil
}
