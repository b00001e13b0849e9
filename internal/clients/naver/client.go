// Package naver scrapes daily quotes and market capitalization from the Naver
// finance portal. The portal has no JSON API for these pages, so both
// providers parse server-rendered HTML.
package naver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"gamestock/internal/weekly"
)

// Client fetches daily series and market caps for stock codes. It implements
// weekly.DailySeriesProvider and weekly.MarketCapProvider.
type Client struct {
	baseURL    string
	userAgent  string
	maxRetries int
	httpClient *http.Client
	log        zerolog.Logger
}

// Config holds client construction parameters.
type Config struct {
	BaseURL    string        // defaults to https://finance.naver.com
	UserAgent  string        // sent on every request; the portal rejects the Go default
	Timeout    time.Duration // per-request timeout, defaults to 10s
	MaxRetries int           // attempts per fetch before giving up, defaults to 3
}

// NewClient creates a new finance portal client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://finance.naver.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  cfg.UserAgent,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "naver_finance").Logger(),
	}
}

// DailySeries fetches up to days rows from the daily quote table
// (item/sise_day), newest first. Rows with an empty or "-" close are skipped.
func (c *Client) DailySeries(ctx context.Context, code string, days int) ([]weekly.DailyBar, error) {
	url := fmt.Sprintf("%s/item/sise_day.naver?code=%s", c.baseURL, code)

	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("daily series for %s: %w", code, err)
	}

	bars := parseDailyTable(doc, days)
	if len(bars) == 0 {
		return nil, fmt.Errorf("daily series for %s: no table rows parsed: %w",
			code, weekly.ErrProviderUnavailable)
	}

	c.log.Debug().Str("code", code).Int("bars", len(bars)).Msg("Fetched daily series")
	return bars, nil
}

// MarketCap fetches the market capitalization from the item main page, in
// units of 100M KRW. A page without a recognizable value yields (nil, nil):
// market cap is optional data, not a provider failure.
func (c *Client) MarketCap(ctx context.Context, code string) (*int64, error) {
	url := fmt.Sprintf("%s/item/main.naver?code=%s", c.baseURL, code)

	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("market cap for %s: %w", code, err)
	}

	if v, ok := parseMarketCap(doc); ok {
		c.log.Debug().Str("code", code).Int64("marketCap", v).Msg("Fetched market cap")
		return &v, nil
	}

	c.log.Warn().Str("code", code).Msg("Market cap not found on main page")
	return nil, nil
}

// fetchDocument GETs a portal page with the retry budget and parses it.
// Retries cover transport errors and 5xx responses with a short fixed
// backoff; 4xx responses fail immediately since retrying cannot help.
func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		doc, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.log.Debug().Err(err).Str("url", url).Int("attempt", attempt).Msg("Fetch failed, retrying")
	}

	return nil, fmt.Errorf("%w: %v", weekly.ErrProviderUnavailable, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (doc *goquery.Document, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("portal returned status %d", resp.StatusCode)
	}

	doc, err = goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse portal HTML: %w", err)
	}
	return doc, false, nil
}
