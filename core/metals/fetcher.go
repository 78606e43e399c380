package metals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// feedResponse is the wire shape of the price feed: per-gram ILS.
type feedResponse struct {
	Gold24K  float64 `json:"gold_24k"`
	Silver   float64 `json:"silver"`
	Platinum float64 `json:"platinum"`
}

// HTTPFetcher fetches live prices from a JSON price feed. Transient
// failures (5xx, network) are retried once after a short backoff.
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPFetcher creates a feed fetcher. The timeout bounds each
// attempt, not the whole call.
func NewHTTPFetcher(url string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch retrieves the current price table from the feed.
func (f *HTTPFetcher) Fetch(ctx context.Context) (RawPrices, error) {
	if f.url == "" {
		return RawPrices{}, fmt.Errorf("metals feed url not configured")
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return RawPrices{}, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}

		raw, err := f.fetchOnce(ctx)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		f.logger.Debug("metals feed attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			return RawPrices{}, ctx.Err()
		}
	}

	return RawPrices{}, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context) (RawPrices, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return RawPrices{}, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return RawPrices{}, fmt.Errorf("metals feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return RawPrices{}, fmt.Errorf("metals feed status %d: %s", resp.StatusCode, body)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return RawPrices{}, fmt.Errorf("decode feed response: %w", err)
	}

	if feed.Gold24K <= 0 || feed.Silver <= 0 || feed.Platinum <= 0 {
		return RawPrices{}, fmt.Errorf("metals feed returned non-positive prices")
	}

	return RawPrices{
		Gold24K:   decimal.NewFromFloat(feed.Gold24K),
		Silver:    decimal.NewFromFloat(feed.Silver),
		Platinum:  decimal.NewFromFloat(feed.Platinum),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// StaticFetcher returns fixed prices or a fixed error. Tests and the
// CLI offline mode use it.
type StaticFetcher struct {
	Prices RawPrices
	Err    error
}

// Fetch implements Fetcher.
func (s StaticFetcher) Fetch(_ context.Context) (RawPrices, error) {
	if s.Err != nil {
		return RawPrices{}, s.Err
	}
	return s.Prices, nil
}
