package googlefinance

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"

	"stock-pulse/src/helpers"
	"stock-pulse/src/logger"
	"stock-pulse/src/models"
)

const providerLabel = "Google Finance (scraped)"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// extractScript pulls P/E and EPS out of the stats table on the quote page.
const extractScript = `(() => {
	const rows = Array.from(document.querySelectorAll('table tr'));
	let peRatio = null;
	let eps = null;
	for (const row of rows) {
		const cells = row.querySelectorAll('td, th');
		if (cells.length < 2) continue;
		const label = (cells[0].textContent || '').trim();
		const value = (cells[1].textContent || '').trim();
		if (!label || !value) continue;
		if (label.includes('P/E')) peRatio = value;
		if (label.includes('EPS')) eps = value;
	}
	return { peRatio: peRatio, latestEarnings: eps };
})()`

// -----------------------------------------------------------------------------
// Scraper fetches fundamentals by driving a shared headless Chrome session
// against the Google Finance quote page. One browser per process; one tab
// per fetch.
// -----------------------------------------------------------------------------

type Scraper struct {
	Config *models.MConfig
	Logger *logger.Logger

	mu         sync.Mutex
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewScraper(cfg *models.MConfig, log *logger.Logger) *Scraper {
	return &Scraper{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *Scraper) Name() string {
	return providerLabel
}

// -----------------------------------------------------------------------------

// browser lazily launches the shared Chrome instance.
func (s *Scraper) browser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Config.Providers.Fundamentals.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Launch now so a broken Chrome install fails the first fetch loudly
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch headless chrome: %w", err)
	}

	s.browserCtx = browserCtx
	s.cancels = []context.CancelFunc{cancelBrowser, cancelAlloc}
	s.Logger.Info("Headless chrome session started")
	return browserCtx, nil
}

// -----------------------------------------------------------------------------

type scrapedFundamentals struct {
	PERatio        *string `json:"peRatio"`
	LatestEarnings *string `json:"latestEarnings"`
}

// FetchFundamentals scrapes P/E and latest EPS for one symbol.
func (s *Scraper) FetchFundamentals(ctx context.Context, symbol string) (*string, *string, error) {
	browserCtx, err := s.browser()
	if err != nil {
		return nil, nil, err
	}

	// New tab per fetch; the caller's context bounds the whole run.
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-done:
		}
	}()

	var data scrapedFundamentals
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(QuoteURL(symbol, s.Config.Providers.Fundamentals.DefaultExchange)),
		chromedp.WaitVisible("table", chromedp.ByQuery),
		chromedp.Evaluate(extractScript, &data),
	)
	if err != nil {
		return nil, nil, helpers.NewDataSourceError(fmt.Sprintf("google finance scrape failed for %s", symbol), err)
	}

	if data.PERatio == nil && data.LatestEarnings == nil {
		return nil, nil, helpers.NewDataSourceError(fmt.Sprintf("fundamentals not found on page for %s", symbol), nil)
	}

	s.Logger.Debug("Scraped %s: pe=%v eps=%v", symbol, deref(data.PERatio), deref(data.LatestEarnings))
	return data.PERatio, data.LatestEarnings, nil
}

// -----------------------------------------------------------------------------

// Close tears down the shared browser session.
func (s *Scraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.browserCtx = nil
}

// -----------------------------------------------------------------------------

// QuoteURL builds the Google Finance quote page URL. Suffixed symbols
// (TCS.NS, RELIANCE.BO, ...) carry their own exchange hint; bare symbols use
// the configured default.
func QuoteURL(symbol, defaultExchange string) string {
	base, exchange := splitSymbol(symbol)
	if exchange == "" {
		exchange = defaultExchange
	}
	return fmt.Sprintf("https://www.google.com/finance/quote/%s:%s", base, exchange)
}

// -----------------------------------------------------------------------------

var exchangeBySuffix = map[string]string{
	".NS": "NSE",
	".BO": "BOM",
	".L":  "LON",
	".T":  "TYO",
	".HK": "HKG",
	".TO": "TSE",
	".AX": "ASX",
	".PA": "EPA",
	".DE": "FRA",
}

func splitSymbol(symbol string) (base, exchange string) {
	if idx := strings.LastIndex(symbol, "."); idx > 0 {
		if ex, ok := exchangeBySuffix[strings.ToUpper(symbol[idx:])]; ok {
			return symbol[:idx], ex
		}
	}
	return symbol, ""
}

// -----------------------------------------------------------------------------

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
