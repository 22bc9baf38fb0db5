package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable signals that the provider responded but had no data for
// the request (unknown ticker, empty history, no listed options). It is
// recovered locally at every call site; transport failures are returned
// as ordinary wrapped errors and treated the same way by callers.
var ErrUnavailable = errors.New("market data unavailable")

// Gateway fetches market data from an external provider. Implementations
// own transport concerns (timeouts, decoding); callers own caching.
type Gateway interface {
	// Bars returns OHLCV bars for the ticker over the range at the
	// given interval, ascending by time. Empty history returns
	// ErrUnavailable.
	Bars(ctx context.Context, ticker string, rng Range, interval Interval) ([]PriceBar, error)

	// LastClose returns the most recent close price for the ticker.
	LastClose(ctx context.Context, ticker string) (float64, error)

	// OptionExpirations lists the listed option expiration dates for
	// the ticker, ascending.
	OptionExpirations(ctx context.Context, ticker string) ([]time.Time, error)

	// OptionChain returns the call contracts listed for the ticker at
	// the given expiration. Moneyness is left unclassified.
	OptionChain(ctx context.Context, ticker string, expiration time.Time) ([]OptionContract, error)

	// Fundamentals returns the fundamental snapshot for the ticker.
	Fundamentals(ctx context.Context, ticker string) (*FundamentalSnapshot, error)
}
