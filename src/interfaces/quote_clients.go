package interfaces

import "context"

// -----------------------------------------------------------------------------
// Capability contracts consumed from the upstream providers. The core only
// depends on these two; the concrete clients live under src/quotes.
// -----------------------------------------------------------------------------

type IPriceClient interface {

	// Name returns the provider label disclosed on served records
	Name() string

	// -----------------------------------------------------------------------------

	// FetchPrice returns the last traded price and its unix-millisecond
	// timestamp for one symbol.
	FetchPrice(ctx context.Context, symbol string) (price float64, timestamp int64, err error)
}

// -----------------------------------------------------------------------------

type IFundamentalsClient interface {

	// Name returns the provider label disclosed on served records
	Name() string

	// -----------------------------------------------------------------------------

	// FetchFundamentals returns the raw P/E ratio and latest earnings figures
	// as displayed by the provider. Either may be nil; both nil is an error.
	FetchFundamentals(ctx context.Context, symbol string) (peRatio *string, latestEarnings *string, err error)
}
