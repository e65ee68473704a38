// Package interfaces defines service contracts for Titan
package interfaces

import (
	"context"

	"github.com/raeisisep-star/titan/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	PortfolioStore() PortfolioStore
	OrderStore() OrderStore
	TradeStore() TradeStore
	StrategyStore() StrategyStore
	AuditStore() AuditStore

	// NextID allocates the next id in a named sequence ("order", "trade", …).
	NextID(sequence string) (int64, error)

	// ApplyFill writes the post-fill portfolio, asset, and trade as one
	// atomic unit. Either all three land or none of them do.
	ApplyFill(ctx context.Context, portfolio *models.Portfolio, asset *models.PortfolioAsset, trade *models.Trade) error

	// Lifecycle
	Close() error
}

// PortfolioStore persists portfolios and their assets.
type PortfolioStore interface {
	GetPortfolio(ctx context.Context, id int64) (*models.Portfolio, error)
	SavePortfolio(ctx context.Context, portfolio *models.Portfolio) error
	ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error)

	GetAsset(ctx context.Context, portfolioID int64, symbol string) (*models.PortfolioAsset, error)
	SaveAsset(ctx context.Context, asset *models.PortfolioAsset) error
	ListAssets(ctx context.Context, portfolioID int64) ([]*models.PortfolioAsset, error)
}

// OrderStore persists orders. Orders are never deleted; terminal orders are
// kept for audit queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	ListOpenOrders(ctx context.Context, userID string) ([]*models.Order, error)
	ListOrdersByPortfolio(ctx context.Context, portfolioID int64) ([]*models.Order, error)
}

// TradeStore persists trade records.
type TradeStore interface {
	GetTrade(ctx context.Context, id int64) (*models.Trade, error)
	SaveTrade(ctx context.Context, trade *models.Trade) error
	ListTradesByPortfolio(ctx context.Context, portfolioID int64) ([]*models.Trade, error)
	GetTradeByOrder(ctx context.Context, orderID int64) (*models.Trade, error)
}

// StrategyStore persists strategies. Strategies are created and edited by the
// management surface; the engine reads them and updates only status fields.
type StrategyStore interface {
	GetStrategy(ctx context.Context, id int64) (*models.Strategy, error)
	SaveStrategy(ctx context.Context, strategy *models.Strategy) error
	ListActiveStrategies(ctx context.Context) ([]*models.Strategy, error)
	ListStrategies(ctx context.Context, userID string) ([]*models.Strategy, error)
	UpdateStatus(ctx context.Context, id int64, status models.StrategyStatus) error
}

// AuditStore is the append-only audit log sink backed by storage.
type AuditStore interface {
	Append(ctx context.Context, event *models.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error)
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*models.AuditEvent, error)
}
