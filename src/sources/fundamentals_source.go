package sources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"stock-pulse/src/breaker"
	"stock-pulse/src/cache"
	"stock-pulse/src/interfaces"
	"stock-pulse/src/logger"
	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// FundamentalsSource applies the fundamentals breaker and a long-TTL cache
// to the fundamentals capability. Failures are reported as a miss and never
// cached: a transient outage must not freeze an empty result for 12 hours.
// -----------------------------------------------------------------------------

type FundamentalsSource struct {
	client  interfaces.IFundamentalsClient
	breaker *breaker.Breaker[string, models.MFundamentalsRecord]
	cache   *cache.Cache[models.MFundamentalsRecord]
	ttl     time.Duration
	logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFundamentalsSource(client interfaces.IFundamentalsClient, cfg *models.MConfig, log *logger.Logger, onState func(name string, from, to breaker.State)) *FundamentalsSource {
	s := &FundamentalsSource{
		client: client,
		cache:  cache.New[models.MFundamentalsRecord](),
		ttl:    time.Duration(cfg.Cache.FundamentalsTTLSeconds) * time.Second,
		logger: log,
	}

	// No fallback: callers treat an error as "no fundamentals this time"
	s.breaker = breaker.New[string, models.MFundamentalsRecord](breaker.Settings{
		Name:           "fundamentals",
		Timeout:        time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
		ErrorThreshold: cfg.Breaker.ErrorThreshold,
		ResetTimeout:   time.Duration(cfg.Breaker.ResetTimeoutSeconds) * time.Second,
		WindowSize:     cfg.Breaker.WindowSize,
		OnStateChange:  onState,
	}, s.fetch)

	return s
}

// -----------------------------------------------------------------------------

func (s *FundamentalsSource) fetch(ctx context.Context, symbol string) (models.MFundamentalsRecord, error) {
	peRaw, earnings, err := s.client.FetchFundamentals(ctx, symbol)
	if err != nil {
		return models.MFundamentalsRecord{}, err
	}
	return models.MFundamentalsRecord{
		PERatio:        parseRatio(peRaw),
		LatestEarnings: earnings,
		UpdatedAt:      time.Now().UTC(),
		Provider:       s.client.Name(),
	}, nil
}

// -----------------------------------------------------------------------------

// GetFundamentals returns the record and true on a cache hit or successful
// fetch, and a zero record and false otherwise.
func (s *FundamentalsSource) GetFundamentals(ctx context.Context, symbol string) (models.MFundamentalsRecord, bool) {
	key := "fundamentals:" + symbol
	if rec, ok := s.cache.Get(key); ok {
		return rec, true
	}

	rec, err := s.breaker.Fire(ctx, symbol)
	if err != nil {
		s.logger.Debug("Fundamentals unavailable for %s: %v", symbol, err)
		return models.MFundamentalsRecord{}, false
	}

	s.cache.Set(key, rec, s.ttl)
	return rec, true
}

// -----------------------------------------------------------------------------

func (s *FundamentalsSource) Label() string {
	return s.client.Name()
}

func (s *FundamentalsSource) BreakerState() breaker.State {
	return s.breaker.State()
}

// -----------------------------------------------------------------------------

// parseRatio converts a displayed ratio ("24.53", "1,204.10") to a number.
// Unparseable or missing values stay nil.
func parseRatio(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	v := strings.ReplaceAll(strings.TrimSpace(*raw), ",", "")
	if v == "" || v == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
