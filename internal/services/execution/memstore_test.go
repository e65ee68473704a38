package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
)

// memStorage is an in-memory StorageManager for engine and ledger tests.
// Saves store clones so tests observe persisted state, not shared pointers.
type memStorage struct {
	mu         sync.Mutex
	portfolios map[int64]*models.Portfolio
	assets     map[string]*models.PortfolioAsset
	orders     map[int64]*models.Order
	trades     map[int64]*models.Trade
	strategies map[int64]*models.Strategy
	events     []*models.AuditEvent
	seq        map[string]int64

	failFillWrites bool // simulate storage failure during the fill write
}

var _ interfaces.StorageManager = (*memStorage)(nil)

func newMemStorage() *memStorage {
	return &memStorage{
		portfolios: make(map[int64]*models.Portfolio),
		assets:     make(map[string]*models.PortfolioAsset),
		orders:     make(map[int64]*models.Order),
		trades:     make(map[int64]*models.Trade),
		strategies: make(map[int64]*models.Strategy),
		seq:        make(map[string]int64),
	}
}

func (m *memStorage) PortfolioStore() interfaces.PortfolioStore { return m }
func (m *memStorage) OrderStore() interfaces.OrderStore         { return m }
func (m *memStorage) TradeStore() interfaces.TradeStore         { return m }
func (m *memStorage) StrategyStore() interfaces.StrategyStore   { return m }
func (m *memStorage) AuditStore() interfaces.AuditStore         { return m }
func (m *memStorage) Close() error                              { return nil }

func (m *memStorage) NextID(sequence string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[sequence]++
	return m.seq[sequence], nil
}

func (m *memStorage) GetPortfolio(_ context.Context, id int64) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.portfolios[id]
	if !ok {
		return nil, fmt.Errorf("portfolio %d: %w", id, models.ErrNotFound)
	}
	return p.Clone(), nil
}

func (m *memStorage) SavePortfolio(_ context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios[p.ID] = p.Clone()
	return nil
}

func (m *memStorage) ListPortfolios(_ context.Context, userID string) ([]*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Portfolio
	for _, p := range m.portfolios {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *memStorage) GetAsset(_ context.Context, portfolioID int64, symbol string) (*models.PortfolioAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[models.AssetKey(portfolioID, symbol)]
	if !ok {
		return nil, nil
	}
	return a.Clone(), nil
}

func (m *memStorage) SaveAsset(_ context.Context, a *models.PortfolioAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.Key] = a.Clone()
	return nil
}

func (m *memStorage) ListAssets(_ context.Context, portfolioID int64) ([]*models.PortfolioAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PortfolioAsset
	for _, a := range m.assets {
		if a.PortfolioID == portfolioID {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (m *memStorage) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	clone := *o
	return &clone, nil
}

func (m *memStorage) SaveOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *o
	m.orders[o.ID] = &clone
	return nil
}

func (m *memStorage) ListOpenOrders(_ context.Context, userID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.UserID == userID && !o.Status.IsTerminal() {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStorage) ListOrdersByPortfolio(_ context.Context, portfolioID int64) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.PortfolioID == portfolioID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStorage) GetTrade(_ context.Context, id int64) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade %d: %w", id, models.ErrNotFound)
	}
	clone := *tr
	return &clone, nil
}

func (m *memStorage) SaveTrade(_ context.Context, tr *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *tr
	m.trades[tr.ID] = &clone
	return nil
}

func (m *memStorage) ApplyFill(_ context.Context, p *models.Portfolio, a *models.PortfolioAsset, tr *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFillWrites {
		return fmt.Errorf("storage unavailable")
	}
	m.portfolios[p.ID] = p.Clone()
	m.assets[a.Key] = a.Clone()
	clone := *tr
	m.trades[tr.ID] = &clone
	return nil
}

func (m *memStorage) ListTradesByPortfolio(_ context.Context, portfolioID int64) ([]*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Trade
	for _, tr := range m.trades {
		if tr.PortfolioID == portfolioID {
			clone := *tr
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStorage) GetTradeByOrder(_ context.Context, orderID int64) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range m.trades {
		if tr.OrderID == orderID {
			clone := *tr
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("trade for order %d: %w", orderID, models.ErrNotFound)
}

func (m *memStorage) GetStrategy(_ context.Context, id int64) (*models.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy %d: %w", id, models.ErrNotFound)
	}
	clone := *s
	return &clone, nil
}

func (m *memStorage) SaveStrategy(_ context.Context, s *models.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.strategies[s.ID] = &clone
	return nil
}

func (m *memStorage) ListActiveStrategies(_ context.Context) ([]*models.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Strategy
	for _, s := range m.strategies {
		if s.Status == models.StrategyStatusActive {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStorage) ListStrategies(_ context.Context, userID string) ([]*models.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Strategy
	for _, s := range m.strategies {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStorage) UpdateStatus(_ context.Context, id int64, status models.StrategyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.strategies[id]
	if !ok {
		return fmt.Errorf("strategy %d: %w", id, models.ErrNotFound)
	}
	s.Status = status
	return nil
}

func (m *memStorage) Append(_ context.Context, event *models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memStorage) Recent(_ context.Context, limit int) ([]*models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := len(m.events) - limit
	if start < 0 {
		start = 0
	}
	out := make([]*models.AuditEvent, 0, limit)
	for i := len(m.events) - 1; i >= start; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *memStorage) ListByEntity(_ context.Context, entityType string, entityID int64) ([]*models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEvent
	for _, ev := range m.events {
		if ev.RelatedEntityType == entityType && ev.RelatedEntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// eventTypes returns the recorded audit event types in order.
func (m *memStorage) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.EventType
	}
	return out
}
