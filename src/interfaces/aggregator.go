package interfaces

import (
	"context"

	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// IAggregator is the single call surface used by both transport endpoints.
// -----------------------------------------------------------------------------

type IAggregator interface {

	// GetAggregated returns the merged per-symbol record, serving from the
	// merged cache when fresh. Upstream failures degrade to partial data;
	// an error is returned only for invalid input or internal failures.
	GetAggregated(ctx context.Context, symbol string) (models.MAggregatedRecord, error)
}
