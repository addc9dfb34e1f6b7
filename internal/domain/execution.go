package domain

import (
	"context"
	"time"
)

// Gateway defines the contract of an order venue.
// It abstracts away the difference between the exchange testnet and paper trading.
type Gateway interface {
	// ListSymbols returns the symbols currently open for trading.
	ListSymbols(ctx context.Context) ([]string, error)

	// ServerTime returns the venue's authoritative clock.
	ServerTime(ctx context.Context) (time.Time, error)

	// SubmitOrder sends a single order. No retry is attempted.
	SubmitOrder(ctx context.Context, sub Submission) (*OrderResult, error)
}

// Closer is implemented by gateways holding secrets that should be wiped.
type Closer interface {
	Close() error
}
