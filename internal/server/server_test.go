package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/raeisisep-star/titan/internal/app"
	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
	"github.com/raeisisep-star/titan/internal/oracle"
)

// fakeStore is an in-memory StorageManager for handler tests.
type fakeStore struct {
	mu         sync.Mutex
	portfolios map[int64]*models.Portfolio
	assets     []*models.PortfolioAsset
	orders     map[int64]*models.Order
	trades     []*models.Trade
	strategies map[int64]*models.Strategy
	events     []*models.AuditEvent
	nextID     int64
}

var _ interfaces.StorageManager = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		portfolios: make(map[int64]*models.Portfolio),
		orders:     make(map[int64]*models.Order),
		strategies: make(map[int64]*models.Strategy),
	}
}

func (f *fakeStore) PortfolioStore() interfaces.PortfolioStore { return f }
func (f *fakeStore) OrderStore() interfaces.OrderStore         { return f }
func (f *fakeStore) TradeStore() interfaces.TradeStore         { return f }
func (f *fakeStore) StrategyStore() interfaces.StrategyStore   { return f }
func (f *fakeStore) AuditStore() interfaces.AuditStore         { return f }
func (f *fakeStore) Close() error                              { return nil }

func (f *fakeStore) NextID(string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) ApplyFill(ctx context.Context, p *models.Portfolio, a *models.PortfolioAsset, tr *models.Trade) error {
	if err := f.SavePortfolio(ctx, p); err != nil {
		return err
	}
	if err := f.SaveAsset(ctx, a); err != nil {
		return err
	}
	return f.SaveTrade(ctx, tr)
}

func (f *fakeStore) GetPortfolio(_ context.Context, id int64) (*models.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.portfolios[id]
	if !ok {
		return nil, fmt.Errorf("portfolio %d: %w", id, models.ErrNotFound)
	}
	return p.Clone(), nil
}

func (f *fakeStore) SavePortfolio(_ context.Context, p *models.Portfolio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portfolios[p.ID] = p.Clone()
	return nil
}

func (f *fakeStore) ListPortfolios(_ context.Context, userID string) ([]*models.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Portfolio
	for _, p := range f.portfolios {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) GetAsset(_ context.Context, portfolioID int64, symbol string) (*models.PortfolioAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assets {
		if a.PortfolioID == portfolioID && a.Symbol == symbol {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveAsset(_ context.Context, a *models.PortfolioAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets = append(f.assets, a.Clone())
	return nil
}

func (f *fakeStore) ListAssets(_ context.Context, portfolioID int64) ([]*models.PortfolioAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PortfolioAsset
	for _, a := range f.assets {
		if a.PortfolioID == portfolioID {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	clone := *o
	return &clone, nil
}

func (f *fakeStore) SaveOrder(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *o
	f.orders[o.ID] = &clone
	return nil
}

func (f *fakeStore) ListOpenOrders(_ context.Context, userID string) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID && !o.Status.IsTerminal() {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrdersByPortfolio(_ context.Context, portfolioID int64) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.PortfolioID == portfolioID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTrade(_ context.Context, id int64) (*models.Trade, error) {
	return nil, fmt.Errorf("trade %d: %w", id, models.ErrNotFound)
}

func (f *fakeStore) SaveTrade(_ context.Context, tr *models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *tr
	f.trades = append(f.trades, &clone)
	return nil
}

func (f *fakeStore) ListTradesByPortfolio(_ context.Context, portfolioID int64) ([]*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Trade
	for _, tr := range f.trades {
		if tr.PortfolioID == portfolioID {
			clone := *tr
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTradeByOrder(_ context.Context, orderID int64) (*models.Trade, error) {
	return nil, fmt.Errorf("trade for order %d: %w", orderID, models.ErrNotFound)
}

func (f *fakeStore) GetStrategy(_ context.Context, id int64) (*models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy %d: %w", id, models.ErrNotFound)
	}
	clone := *s
	return &clone, nil
}

func (f *fakeStore) SaveStrategy(_ context.Context, s *models.Strategy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *s
	f.strategies[s.ID] = &clone
	return nil
}

func (f *fakeStore) ListActiveStrategies(_ context.Context) ([]*models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Strategy
	for _, s := range f.strategies {
		if s.Status == models.StrategyStatusActive {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) ListStrategies(_ context.Context, userID string) ([]*models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Strategy
	for _, s := range f.strategies {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status models.StrategyStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.strategies[id]
	if !ok {
		return fmt.Errorf("strategy %d: %w", id, models.ErrNotFound)
	}
	s.Status = status
	return nil
}

func (f *fakeStore) Append(_ context.Context, event *models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) Recent(_ context.Context, limit int) ([]*models.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.AuditEvent, 0, limit)
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.events[i])
	}
	return out, nil
}

func (f *fakeStore) ListByEntity(_ context.Context, entityType string, entityID int64) ([]*models.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEvent
	for _, ev := range f.events {
		if ev.RelatedEntityType == entityType && ev.RelatedEntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// fakeExecution returns canned results for handler tests.
type fakeExecution struct {
	result    *models.ExecutionResult
	cancelErr error
	open      []*models.Order
}

var _ interfaces.ExecutionService = (*fakeExecution)(nil)

func (f *fakeExecution) Submit(context.Context, models.OrderRequest) (*models.ExecutionResult, error) {
	return f.result, nil
}

func (f *fakeExecution) Cancel(context.Context, string, int64) error { return f.cancelErr }

func (f *fakeExecution) OpenOrders(context.Context, string) ([]*models.Order, error) {
	return f.open, nil
}

// fakeRunner returns canned results for handler tests.
type fakeRunner struct {
	results       []*models.ExecutionResult
	runErr        error
	reactivateErr error
}

var _ interfaces.StrategyRunner = (*fakeRunner)(nil)

func (f *fakeRunner) RunStrategy(context.Context, int64) ([]*models.ExecutionResult, error) {
	return f.results, f.runErr
}

func (f *fakeRunner) Reactivate(context.Context, int64) error { return f.reactivateErr }

// newTestServer builds a server over fakes with the default config.
func newTestServer(store *fakeStore, engine interfaces.ExecutionService, runner interfaces.StrategyRunner) *Server {
	config := common.NewDefaultConfig()
	logger := common.NewSilentLogger()
	a := &app.App{
		Config:  config,
		Logger:  logger,
		Storage: store,
		Oracle:  oracle.NewStatic(map[string]float64{"BTC": 50000}),
		Engine:  engine,
		Runner:  runner,
	}
	return NewServer(a)
}
