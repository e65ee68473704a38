package execution

import (
	"fmt"

	"github.com/raeisisep-star/titan/internal/models"
)

// ValidateOrder checks an order request against immutable portfolio and asset
// snapshots. It has no side effects, so it can run outside any lock as a
// pre-check; the ledger repeats the sufficiency checks atomically against
// live state before mutating anything.
//
// referencePrice is the limit price when one is given, otherwise the oracle
// price at validation time. asset may be nil when no position exists.
func ValidateOrder(req models.OrderRequest, portfolio *models.Portfolio, asset *models.PortfolioAsset, referencePrice float64) error {
	if req.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrUnknownSymbol)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidQuantity, req.Quantity)
	}
	if referencePrice <= 0 {
		return fmt.Errorf("%w: no price for %s", ErrUnknownSymbol, req.Symbol)
	}

	switch req.Side {
	case models.OrderSideBuy:
		required := req.Quantity * referencePrice
		if portfolio.AvailableBalance < required {
			return fmt.Errorf("%w: need %.2f, available %.2f", ErrInsufficientBalance, required, portfolio.AvailableBalance)
		}
	case models.OrderSideSell:
		if asset == nil || asset.Amount < req.Quantity {
			held := 0.0
			if asset != nil {
				held = asset.Amount
			}
			return fmt.Errorf("%w: selling %v, holding %v %s", ErrInsufficientAssets, req.Quantity, held, req.Symbol)
		}
	default:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidQuantity, req.Side)
	}

	return nil
}

// ReferencePrice resolves the price used for validation and execution:
// the limit price for limit-style orders when set, else the oracle price.
func ReferencePrice(req models.OrderRequest, oraclePrice float64) float64 {
	if (req.Type == models.OrderTypeLimit || req.Type == models.OrderTypeStopLimit) && req.Price > 0 {
		return req.Price
	}
	return oraclePrice
}
