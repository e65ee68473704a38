package execution

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

const epsilon = 1e-9

func newTestLedger(t *testing.T, balance float64) (*Ledger, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	require.NoError(t, storage.SavePortfolio(context.Background(), &models.Portfolio{
		ID:               1,
		UserID:           "default",
		Name:             "main",
		BalanceUSD:       balance,
		AvailableBalance: balance,
	}))
	return NewLedger(storage, common.NewSilentLogger()), storage
}

func buyOrder(id int64, qty float64) *models.Order {
	return &models.Order{
		ID:          id,
		UserID:      "default",
		PortfolioID: 1,
		Symbol:      "BTC",
		Side:        models.OrderSideBuy,
		Type:        models.OrderTypeMarket,
		Quantity:    qty,
		Status:      models.OrderStatusOpen,
	}
}

func TestApplyBuyDebitsCashAndCreditsAsset(t *testing.T) {
	ledger, storage := newTestLedger(t, 10000)
	ctx := context.Background()

	result, err := ledger.ApplyBuy(ctx, buyOrder(1, 2), 1000, 2)
	require.NoError(t, err)

	// cost = 2*1000 + 2 fees
	assert.InDelta(t, 7998, result.Portfolio.AvailableBalance, epsilon)
	assert.InDelta(t, 7998, result.Portfolio.BalanceUSD, epsilon)
	assert.InDelta(t, 2, result.Asset.Amount, epsilon)
	assert.InDelta(t, 1000, result.Asset.AvgBuyPrice, epsilon)
	assert.InDelta(t, result.Portfolio.AvailableBalance+result.Portfolio.LockedBalance, result.Portfolio.BalanceUSD, epsilon)

	// write-through happened
	persisted, err := storage.GetPortfolio(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 7998, persisted.AvailableBalance, epsilon)
	trade, err := storage.GetTradeByOrder(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2, trade.Fees, epsilon)
}

func TestApplyBuyAveragesCostBasis(t *testing.T) {
	ledger, _ := newTestLedger(t, 100000)
	ctx := context.Background()

	_, err := ledger.ApplyBuy(ctx, buyOrder(1, 1), 1000, 0)
	require.NoError(t, err)
	result, err := ledger.ApplyBuy(ctx, buyOrder(2, 3), 2000, 0)
	require.NoError(t, err)

	// (1*1000 + 3*2000) / 4 = 1750
	assert.InDelta(t, 1750, result.Asset.AvgBuyPrice, epsilon)
	assert.InDelta(t, 4, result.Asset.Amount, epsilon)
}

func TestApplyBuyInsufficientBalance(t *testing.T) {
	ledger, storage := newTestLedger(t, 100)
	ctx := context.Background()

	_, err := ledger.ApplyBuy(ctx, buyOrder(1, 1), 1000, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// nothing changed
	persisted, err := storage.GetPortfolio(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 100, persisted.AvailableBalance, epsilon)
	assert.Empty(t, storage.trades)
}

func TestApplySellRealizesPnL(t *testing.T) {
	ledger, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	_, err := ledger.ApplyBuy(ctx, buyOrder(1, 2), 1000, 0)
	require.NoError(t, err)

	sell := buyOrder(2, 1)
	sell.Side = models.OrderSideSell
	result, err := ledger.ApplySell(ctx, sell, 1500, 3)
	require.NoError(t, err)

	// proceeds = 1500 - 3, realized = 1*(1500-1000) = 500, net 497
	assert.InDelta(t, 8000+1497, result.Portfolio.AvailableBalance, epsilon)
	assert.InDelta(t, 497, result.Portfolio.TotalPnL, epsilon)
	assert.InDelta(t, 497, result.Portfolio.DailyPnL, epsilon)
	assert.InDelta(t, 1, result.Asset.Amount, epsilon)
	assert.InDelta(t, 497, result.Trade.NetPnL, epsilon)
	assert.InDelta(t, result.Portfolio.AvailableBalance+result.Portfolio.LockedBalance, result.Portfolio.BalanceUSD, epsilon)
}

func TestApplySellInsufficientAssets(t *testing.T) {
	ledger, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	sell := buyOrder(1, 1)
	sell.Side = models.OrderSideSell
	_, err := ledger.ApplySell(ctx, sell, 1000, 0)
	assert.ErrorIs(t, err, ErrInsufficientAssets)

	_, err = ledger.ApplyBuy(ctx, buyOrder(2, 0.5), 1000, 0)
	require.NoError(t, err)

	sell = buyOrder(3, 1)
	sell.Side = models.OrderSideSell
	_, err = ledger.ApplySell(ctx, sell, 1000, 0)
	assert.ErrorIs(t, err, ErrInsufficientAssets)
}

func TestApplyBuyPersistFailureLeavesStateUntouched(t *testing.T) {
	ledger, storage := newTestLedger(t, 10000)
	ctx := context.Background()

	storage.failFillWrites = true
	_, err := ledger.ApplyBuy(ctx, buyOrder(1, 1), 1000, 0)
	require.Error(t, err)
	assert.False(t, isValidationError(err))

	// nothing durable changed: no debit, no position, no trade record
	persisted, err := storage.GetPortfolio(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10000, persisted.AvailableBalance, epsilon)
	asset, err := storage.GetAsset(ctx, 1, "BTC")
	require.NoError(t, err)
	assert.Nil(t, asset)
	trades, err := storage.ListTradesByPortfolio(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)

	// the staged mutation was discarded; a later buy sees the full balance
	storage.failFillWrites = false
	result, err := ledger.ApplyBuy(ctx, buyOrder(2, 1), 1000, 0)
	require.NoError(t, err)
	assert.InDelta(t, 9000, result.Portfolio.AvailableBalance, epsilon)
	assert.InDelta(t, 1, result.Asset.Amount, epsilon)
}

func TestConcurrentBuysNeverOverspend(t *testing.T) {
	// 20 concurrent buys of 100 each against a balance of 1000: exactly 10
	// can succeed, and the final balance must be non-negative.
	ledger, storage := newTestLedger(t, 1000)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := ledger.ApplyBuy(ctx, buyOrder(id, 1), 100, 0)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInsufficientBalance)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	persisted, err := storage.GetPortfolio(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, persisted.AvailableBalance, epsilon)
	assert.GreaterOrEqual(t, persisted.AvailableBalance, 0.0)
}

func TestConcurrentSellsNeverOversell(t *testing.T) {
	ledger, storage := newTestLedger(t, 10000)
	ctx := context.Background()

	_, err := ledger.ApplyBuy(ctx, buyOrder(1, 5), 1000, 0)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sell := buyOrder(id, 1)
			sell.Side = models.OrderSideSell
			_, err := ledger.ApplySell(ctx, sell, 1000, 0)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInsufficientAssets)
			}
		}(int64(i + 10))
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)

	asset, err := storage.GetAsset(ctx, 1, "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 0, asset.Amount, epsilon)
}

func TestSnapshotReturnsCopies(t *testing.T) {
	ledger, _ := newTestLedger(t, 1000)
	ctx := context.Background()

	p1, _, err := ledger.Snapshot(ctx, 1, "BTC")
	require.NoError(t, err)
	p1.AvailableBalance = 0

	p2, _, err := ledger.Snapshot(ctx, 1, "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 1000, p2.AvailableBalance, epsilon)
}

func TestSnapshotUnknownPortfolio(t *testing.T) {
	ledger := NewLedger(newMemStorage(), common.NewSilentLogger())
	_, _, err := ledger.Snapshot(context.Background(), 42, "BTC")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
