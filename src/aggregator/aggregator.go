package aggregator

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-pulse/src/cache"
	"stock-pulse/src/helpers"
	"stock-pulse/src/logger"
	"stock-pulse/src/models"
	"stock-pulse/src/sources"
	"stock-pulse/src/utils"
)

// -----------------------------------------------------------------------------
// Aggregator orchestrates the two sources per symbol and owns the
// merged-record cache. The short merged TTL collapses N near-simultaneous
// requests for one symbol into a single pair of upstream calls, bounding
// upstream QPS independent of subscriber count.
// -----------------------------------------------------------------------------

type Aggregator struct {
	Price        *sources.PriceSource
	Fundamentals *sources.FundamentalsSource
	Scheduler    *utils.MarketScheduler
	Logger       *logger.Logger

	merged *cache.Cache[models.MAggregatedRecord]
	ttl    time.Duration
}

// -----------------------------------------------------------------------------

func New(price *sources.PriceSource, fundamentals *sources.FundamentalsSource, scheduler *utils.MarketScheduler, cfg *models.MConfig, log *logger.Logger) *Aggregator {
	return &Aggregator{
		Price:        price,
		Fundamentals: fundamentals,
		Scheduler:    scheduler,
		Logger:       log,
		merged:       cache.New[models.MAggregatedRecord](),
		ttl:          time.Duration(cfg.Cache.MergedTTLSeconds) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// GetAggregated returns the merged record for symbol, fetching both sources
// concurrently on a merged-cache miss. A failing source degrades its fields
// to nil; it never fails the whole record.
func (a *Aggregator) GetAggregated(ctx context.Context, symbol string) (models.MAggregatedRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.MAggregatedRecord{}, helpers.NewValidationError("Symbol required")
	}

	key := "stock:" + symbol
	if rec, ok := a.merged.Get(key); ok {
		return rec, nil
	}

	var (
		priceRec models.MPriceRecord
		fundRec  models.MFundamentalsRecord
		fundOK   bool
	)

	// Both sources swallow their own failures, so neither goroutine can
	// cancel the other through the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		priceRec = a.Price.GetPrice(gctx, symbol)
		return nil
	})
	g.Go(func() error {
		fundRec, fundOK = a.Fundamentals.GetFundamentals(gctx, symbol)
		return nil
	})
	_ = g.Wait()

	rec := models.MAggregatedRecord{
		Symbol:           symbol,
		Price:            priceRec.Price,
		PriceTimestamp:   priceRec.Timestamp,
		PriceBreakerOpen: priceRec.BreakerOpen,
		MarketOpen:       a.Scheduler.MarketOpen(symbol),
		UpdatedAt:        time.Now().UTC(),
		Source: models.MSourceLabels{
			Price:        a.Price.Label(),
			Fundamentals: a.Fundamentals.Label(),
		},
	}
	if fundOK {
		rec.PERatio = fundRec.PERatio
		rec.LatestEarnings = fundRec.LatestEarnings
	}

	a.merged.Set(key, rec, a.ttl)
	return rec, nil
}
