package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

type portfolioStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPortfolioStorage creates a new PortfolioStore backed by BadgerHold.
func NewPortfolioStorage(store *Store, logger *common.Logger) *portfolioStorage {
	return &portfolioStorage{store: store, logger: logger}
}

func (s *portfolioStorage) GetPortfolio(_ context.Context, id int64) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := s.store.db.Get(id, &portfolio)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("portfolio %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio %d: %w", id, err)
	}
	return &portfolio, nil
}

func (s *portfolioStorage) SavePortfolio(_ context.Context, portfolio *models.Portfolio) error {
	portfolio.UpdatedAt = time.Now()
	if portfolio.CreatedAt.IsZero() {
		portfolio.CreatedAt = portfolio.UpdatedAt
	}

	if err := s.store.db.Upsert(portfolio.ID, portfolio); err != nil {
		return fmt.Errorf("failed to save portfolio %d: %w", portfolio.ID, err)
	}
	s.logger.Debug().Int64("portfolio", portfolio.ID).Msg("Portfolio saved")
	return nil
}

func (s *portfolioStorage) ListPortfolios(_ context.Context, userID string) ([]*models.Portfolio, error) {
	var portfolios []*models.Portfolio
	if err := s.store.db.Find(&portfolios, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to list portfolios for %s: %w", userID, err)
	}
	return portfolios, nil
}

func (s *portfolioStorage) GetAsset(_ context.Context, portfolioID int64, symbol string) (*models.PortfolioAsset, error) {
	var asset models.PortfolioAsset
	err := s.store.db.Get(models.AssetKey(portfolioID, symbol), &asset)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil // no position yet
		}
		return nil, fmt.Errorf("failed to get asset %s for portfolio %d: %w", symbol, portfolioID, err)
	}
	return &asset, nil
}

func (s *portfolioStorage) SaveAsset(_ context.Context, asset *models.PortfolioAsset) error {
	asset.UpdatedAt = time.Now()
	if asset.Key == "" {
		asset.Key = models.AssetKey(asset.PortfolioID, asset.Symbol)
	}
	if err := s.store.db.Upsert(asset.Key, asset); err != nil {
		return fmt.Errorf("failed to save asset %s: %w", asset.Key, err)
	}
	return nil
}

func (s *portfolioStorage) ListAssets(_ context.Context, portfolioID int64) ([]*models.PortfolioAsset, error) {
	var assets []*models.PortfolioAsset
	if err := s.store.db.Find(&assets, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("failed to list assets for portfolio %d: %w", portfolioID, err)
	}
	return assets, nil
}
