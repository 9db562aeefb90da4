package utils

import (
	"sync"
	"time"

	"stock-pulse/src/logger"
)

// MarketScheduler caches one TradingCalendar per symbol, resolved on demand.
type MarketScheduler struct {
	Logger *logger.Logger

	mu        sync.RWMutex
	calendars map[string]*TradingCalendar
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(l *logger.Logger) *MarketScheduler {
	return &MarketScheduler{
		Logger:    l,
		calendars: make(map[string]*TradingCalendar),
	}
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) calendarFor(symbol string) *TradingCalendar {
	ms.mu.RLock()
	cal, ok := ms.calendars[symbol]
	ms.mu.RUnlock()
	if ok {
		return cal
	}

	cal = GetCalendar(symbol)

	ms.mu.Lock()
	ms.calendars[symbol] = cal
	ms.mu.Unlock()

	ms.Logger.Debug("Mapped %s to a trading calendar (fallback=%v)", symbol, cal.Fallback)
	return cal
}

// -----------------------------------------------------------------------------

// MarketOpen reports whether the symbol's home market is trading right now.
func (ms *MarketScheduler) MarketOpen(symbol string) bool {
	return ms.calendarFor(symbol).IsOpenOnMinute(time.Now().UTC())
}
