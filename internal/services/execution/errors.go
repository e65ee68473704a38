// Package execution implements order validation, the portfolio ledger, and
// the execution engine that ties them together.
package execution

import "errors"

// Validation failures. These reject the order; the caller may resubmit after
// changing it, but the engine never retries on its own.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientAssets  = errors.New("insufficient assets")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrUnknownSymbol       = errors.New("unknown symbol")
)

// Cancellation failures.
var (
	ErrNotCancelable         = errors.New("order is not cancelable")
	ErrOrderAlreadyExecuting = errors.New("order is already executing")
	ErrUnauthorized          = errors.New("order belongs to another user")
)

// isValidationError reports whether err belongs to the validation taxonomy.
// The ledger's live re-check returns the same sentinels when a race is lost.
func isValidationError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientAssets) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrUnknownSymbol)
}
