package sources

import (
	"context"
	"time"

	"stock-pulse/src/breaker"
	"stock-pulse/src/cache"
	"stock-pulse/src/interfaces"
	"stock-pulse/src/logger"
	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// PriceSource applies the price breaker and a short-TTL cache to the live
// price capability. Failed and fast-failed lookups yield a nil-price record
// with BreakerOpen set and are never cached, so the next request retries
// immediately instead of waiting out a TTL.
// -----------------------------------------------------------------------------

type PriceSource struct {
	client  interfaces.IPriceClient
	breaker *breaker.Breaker[string, models.MPriceRecord]
	cache   *cache.Cache[models.MPriceRecord]
	ttl     time.Duration
	logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPriceSource(client interfaces.IPriceClient, cfg *models.MConfig, log *logger.Logger, onState func(name string, from, to breaker.State)) *PriceSource {
	s := &PriceSource{
		client: client,
		cache:  cache.New[models.MPriceRecord](),
		ttl:    time.Duration(cfg.Cache.PriceTTLSeconds) * time.Second,
		logger: log,
	}

	s.breaker = breaker.New[string, models.MPriceRecord](breaker.Settings{
		Name:           "price",
		Timeout:        time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
		ErrorThreshold: cfg.Breaker.ErrorThreshold,
		ResetTimeout:   time.Duration(cfg.Breaker.ResetTimeoutSeconds) * time.Second,
		WindowSize:     cfg.Breaker.WindowSize,
		OnStateChange:  onState,
	}, s.fetch).WithFallback(func(symbol string) models.MPriceRecord {
		return models.MPriceRecord{Symbol: symbol, BreakerOpen: true}
	})

	return s
}

// -----------------------------------------------------------------------------

func (s *PriceSource) fetch(ctx context.Context, symbol string) (models.MPriceRecord, error) {
	price, ts, err := s.client.FetchPrice(ctx, symbol)
	if err != nil {
		return models.MPriceRecord{}, err
	}
	return models.MPriceRecord{Symbol: symbol, Price: &price, Timestamp: &ts}, nil
}

// -----------------------------------------------------------------------------

// GetPrice returns the cached or freshly fetched price record for symbol.
// It never fails: degraded lookups produce a nil-price record.
func (s *PriceSource) GetPrice(ctx context.Context, symbol string) models.MPriceRecord {
	key := "price:" + symbol
	if rec, ok := s.cache.Get(key); ok {
		return rec
	}

	rec, err := s.breaker.Fire(ctx, symbol)
	if err != nil {
		// Unreachable while the fallback is registered, kept for safety
		s.logger.Warning("Price fetch failed for %s: %v", symbol, err)
		return models.MPriceRecord{Symbol: symbol, BreakerOpen: true}
	}

	if rec.BreakerOpen {
		return rec
	}

	s.cache.Set(key, rec, s.ttl)
	return rec
}

// -----------------------------------------------------------------------------

func (s *PriceSource) Label() string {
	return s.client.Name()
}

func (s *PriceSource) BreakerState() breaker.State {
	return s.breaker.State()
}
