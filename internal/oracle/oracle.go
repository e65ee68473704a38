// Package oracle provides PriceOracle implementations: a deterministic static
// fixture, a rate-limited HTTP polling client, a websocket streaming feed,
// and a caching decorator that shields the execution path from slow sources.
package oracle

import "errors"

// ErrUnknownSymbol is returned when the oracle has no price for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// ErrNoPrice is returned when a live source failed and no cached value exists.
var ErrNoPrice = errors.New("no price available")
