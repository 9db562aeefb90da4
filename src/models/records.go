package models

import "time"

// -----------------------------------------------------------------------------
// Per-source and merged record types
// -----------------------------------------------------------------------------

// MPriceRecord is produced by the price source. Price and Timestamp are nil
// whenever the provider call failed or the breaker fast-failed it, in which
// case BreakerOpen is set and the record is never cached.
type MPriceRecord struct {
	Symbol      string   `json:"symbol"`
	Price       *float64 `json:"price"`
	Timestamp   *int64   `json:"timestamp"`
	BreakerOpen bool     `json:"breakerOpen"`
}

// MFundamentalsRecord is produced by the fundamentals source on success only;
// failures are returned as a miss and never cached.
type MFundamentalsRecord struct {
	PERatio        *float64  `json:"peRatio"`
	LatestEarnings *string   `json:"latestEarnings"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Provider       string    `json:"provider"`
}

type MSourceLabels struct {
	Price        string `json:"price"`
	Fundamentals string `json:"fundamentals"`
}

// MAggregatedRecord is the merged per-symbol snapshot served to every
// consumer. It is immutable once built; concurrent readers share one value.
type MAggregatedRecord struct {
	Symbol           string        `json:"symbol"`
	Price            *float64      `json:"price"`
	PriceTimestamp   *int64        `json:"priceTimestamp"`
	PriceBreakerOpen bool          `json:"priceBreakerOpen"`
	PERatio          *float64      `json:"peRatio"`
	LatestEarnings   *string       `json:"latestEarnings"`
	MarketOpen       bool          `json:"marketOpen"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	Source           MSourceLabels `json:"source"`
}
