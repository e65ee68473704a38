// Package storage provides the top-level StorageManager coordinating the
// engine's BadgerHold-backed stores.
package storage

import (
	"context"
	"fmt"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
	"github.com/raeisisep-star/titan/internal/storage/badger"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Manager)(nil)

// Manager implements interfaces.StorageManager over a single embedded store.
type Manager struct {
	store      *badger.Store
	portfolios interfaces.PortfolioStore
	orders     interfaces.OrderStore
	trades     interfaces.TradeStore
	strategies interfaces.StrategyStore
	audit      interfaces.AuditStore
	logger     *common.Logger
}

// NewManager opens the embedded database and wires up the typed stores.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		store:      store,
		portfolios: badger.NewPortfolioStorage(store, logger),
		orders:     badger.NewOrderStorage(store, logger),
		trades:     badger.NewTradeStorage(store, logger),
		strategies: badger.NewStrategyStorage(store, logger),
		audit:      badger.NewAuditStorage(store, logger),
		logger:     logger,
	}, nil
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore { return m.portfolios }
func (m *Manager) OrderStore() interfaces.OrderStore         { return m.orders }
func (m *Manager) TradeStore() interfaces.TradeStore         { return m.trades }
func (m *Manager) StrategyStore() interfaces.StrategyStore   { return m.strategies }
func (m *Manager) AuditStore() interfaces.AuditStore         { return m.audit }

// NextID allocates the next id in a named sequence.
func (m *Manager) NextID(sequence string) (int64, error) {
	return m.store.NextID(sequence)
}

// ApplyFill atomically persists the state produced by one fill.
func (m *Manager) ApplyFill(ctx context.Context, portfolio *models.Portfolio, asset *models.PortfolioAsset, trade *models.Trade) error {
	return m.store.ApplyFill(ctx, portfolio, asset, trade)
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.store.Close()
}
