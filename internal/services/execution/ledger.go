package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
)

// Ledger owns the authoritative balance and asset state per portfolio. All
// mutations go through ApplyBuy/ApplySell, which serialize per portfolio id
// while leaving different portfolios free to proceed in parallel. The
// in-memory state is the source of truth during a run; every successful
// apply is written through to storage before it becomes visible.
type Ledger struct {
	storage interfaces.StorageManager
	logger  *common.Logger

	mu         sync.Mutex             // guards the maps below, never held during an apply
	locks      map[int64]*sync.Mutex  // per-portfolio serialization point
	portfolios map[int64]*models.Portfolio
	assets     map[string]*models.PortfolioAsset
}

// Result is the outcome of one ledger apply: the trade record and the
// post-apply snapshots.
type Result struct {
	Trade     *models.Trade
	Portfolio *models.Portfolio
	Asset     *models.PortfolioAsset
}

// NewLedger creates a ledger over the given storage.
func NewLedger(storage interfaces.StorageManager, logger *common.Logger) *Ledger {
	return &Ledger{
		storage:    storage,
		logger:     logger,
		locks:      make(map[int64]*sync.Mutex),
		portfolios: make(map[int64]*models.Portfolio),
		assets:     make(map[string]*models.PortfolioAsset),
	}
}

// lockFor returns the serialization mutex for a portfolio id.
func (l *Ledger) lockFor(portfolioID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[portfolioID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[portfolioID] = lock
	}
	return lock
}

// portfolio returns the live portfolio state, loading it from storage on
// first touch. Callers must hold the portfolio's lock (or l.mu for reads).
func (l *Ledger) portfolio(ctx context.Context, portfolioID int64) (*models.Portfolio, error) {
	l.mu.Lock()
	p, ok := l.portfolios[portfolioID]
	l.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := l.storage.PortfolioStore().GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	// another loader may have won; keep the first
	if existing, ok := l.portfolios[portfolioID]; ok {
		p = existing
	} else {
		l.portfolios[portfolioID] = p
	}
	l.mu.Unlock()
	return p, nil
}

// asset returns the live asset state, or nil when no position exists yet.
func (l *Ledger) asset(ctx context.Context, portfolioID int64, symbol string) (*models.PortfolioAsset, error) {
	key := models.AssetKey(portfolioID, symbol)
	l.mu.Lock()
	a, ok := l.assets[key]
	l.mu.Unlock()
	if ok {
		return a, nil
	}

	a, err := l.storage.PortfolioStore().GetAsset(ctx, portfolioID, symbol)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	l.mu.Lock()
	if existing, ok := l.assets[key]; ok {
		a = existing
	} else {
		l.assets[key] = a
	}
	l.mu.Unlock()
	return a, nil
}

// Snapshot returns copies of the current portfolio and asset state for
// lock-free pre-checks. The asset copy is nil when no position exists.
func (l *Ledger) Snapshot(ctx context.Context, portfolioID int64, symbol string) (*models.Portfolio, *models.PortfolioAsset, error) {
	p, err := l.portfolio(ctx, portfolioID)
	if err != nil {
		return nil, nil, err
	}
	a, err := l.asset(ctx, portfolioID, symbol)
	if err != nil {
		return nil, nil, err
	}

	lock := l.lockFor(portfolioID)
	lock.Lock()
	defer lock.Unlock()
	pc := p.Clone()
	var ac *models.PortfolioAsset
	if a != nil {
		ac = a.Clone()
	}
	return pc, ac, nil
}

// ApplyBuy executes a buy against the portfolio as one atomic unit: re-check
// balance against live state, debit cash, credit the asset at a
// volume-weighted cost basis, persist, and emit the trade record. Either the
// whole mutation becomes visible or none of it does.
func (l *Ledger) ApplyBuy(ctx context.Context, order *models.Order, price, fees float64) (*Result, error) {
	lock := l.lockFor(order.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	p, err := l.portfolio(ctx, order.PortfolioID)
	if err != nil {
		return nil, err
	}
	a, err := l.asset(ctx, order.PortfolioID, order.Symbol)
	if err != nil {
		return nil, err
	}

	cost := order.Quantity*price + fees
	if p.AvailableBalance < cost {
		return nil, fmt.Errorf("%w: need %.2f, available %.2f", ErrInsufficientBalance, cost, p.AvailableBalance)
	}

	// Stage the mutation on clones; nothing is visible until the write-through
	// succeeds.
	np := p.Clone()
	np.AvailableBalance -= cost
	np.BalanceUSD -= cost

	var na *models.PortfolioAsset
	if a == nil {
		na = &models.PortfolioAsset{
			Key:         models.AssetKey(order.PortfolioID, order.Symbol),
			PortfolioID: order.PortfolioID,
			Symbol:      order.Symbol,
			Amount:      order.Quantity,
			AvgBuyPrice: price,
		}
	} else {
		na = a.Clone()
		na.AvgBuyPrice = (a.Amount*a.AvgBuyPrice + order.Quantity*price) / (a.Amount + order.Quantity)
		na.Amount += order.Quantity
	}
	na.Revalue(price)

	trade, err := l.persist(ctx, order, np, na, price, fees, 0)
	if err != nil {
		return nil, err
	}

	l.commit(np, na)

	l.logger.Info().
		Int64("portfolio", order.PortfolioID).
		Str("symbol", order.Symbol).
		Float64("quantity", order.Quantity).
		Float64("price", price).
		Float64("available", np.AvailableBalance).
		Msg("Buy applied")

	return &Result{Trade: trade, Portfolio: np.Clone(), Asset: na.Clone()}, nil
}

// ApplySell executes a sell as one atomic unit: re-check the held amount
// against live state, credit cash net of fees, reduce the position, realize
// PnL against the cost basis, persist, and emit the trade record.
func (l *Ledger) ApplySell(ctx context.Context, order *models.Order, price, fees float64) (*Result, error) {
	lock := l.lockFor(order.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	p, err := l.portfolio(ctx, order.PortfolioID)
	if err != nil {
		return nil, err
	}
	a, err := l.asset(ctx, order.PortfolioID, order.Symbol)
	if err != nil {
		return nil, err
	}
	if a == nil || a.Amount < order.Quantity {
		held := 0.0
		if a != nil {
			held = a.Amount
		}
		return nil, fmt.Errorf("%w: selling %v, holding %v %s", ErrInsufficientAssets, order.Quantity, held, order.Symbol)
	}

	proceeds := order.Quantity*price - fees
	realized := order.Quantity * (price - a.AvgBuyPrice)

	np := p.Clone()
	np.AvailableBalance += proceeds
	np.BalanceUSD += proceeds
	np.TotalPnL += realized - fees
	np.DailyPnL += realized - fees

	na := a.Clone()
	na.Amount -= order.Quantity
	na.Revalue(price)

	trade, err := l.persist(ctx, order, np, na, price, fees, realized-fees)
	if err != nil {
		return nil, err
	}

	l.commit(np, na)

	l.logger.Info().
		Int64("portfolio", order.PortfolioID).
		Str("symbol", order.Symbol).
		Float64("quantity", order.Quantity).
		Float64("price", price).
		Float64("realized_pnl", realized).
		Msg("Sell applied")

	return &Result{Trade: trade, Portfolio: np.Clone(), Asset: na.Clone()}, nil
}

// persist writes the staged state and the new trade through to storage as one
// atomic unit. A failure here aborts the apply with nothing written, so both
// the in-memory state and the durable state stay consistent.
func (l *Ledger) persist(ctx context.Context, order *models.Order, p *models.Portfolio, a *models.PortfolioAsset, price, fees, netPnL float64) (*models.Trade, error) {
	tradeID, err := l.storage.NextID("trade")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate trade id: %w", err)
	}

	trade := &models.Trade{
		ID:          tradeID,
		OrderID:     order.ID,
		PortfolioID: order.PortfolioID,
		UserID:      order.UserID,
		Symbol:      order.Symbol,
		Side:        order.Side,
		EntryPrice:  price,
		Quantity:    order.Quantity,
		Fees:        fees,
		NetPnL:      netPnL,
		EntryTime:   time.Now(),
	}

	if err := l.storage.ApplyFill(ctx, p, a, trade); err != nil {
		return nil, fmt.Errorf("failed to persist fill: %w", err)
	}
	return trade, nil
}

// commit swaps staged clones in as the live state. Callers hold the
// portfolio lock.
func (l *Ledger) commit(p *models.Portfolio, a *models.PortfolioAsset) {
	l.mu.Lock()
	l.portfolios[p.ID] = p
	l.assets[a.Key] = a
	l.mu.Unlock()
}
