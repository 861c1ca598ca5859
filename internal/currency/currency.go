// Package currency resolves exchange rates and formats money for display.
package currency

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wonny/quantafolio/internal/external/naver"
	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
)

// Currency codes
const (
	USD = "USD"
	KRW = "KRW"
)

const (
	// DefaultUSDKRW is used when no source has ever produced a rate
	DefaultUSDKRW = 1300.0

	// CacheTTL is how long a fetched rate is served without refetching
	CacheTTL = time.Hour

	// scraped USD/KRW outside this band is treated as a parse failure
	minSaneUSDKRW = 1000.0
	maxSaneUSDKRW = 2000.0
)

// ErrRateUnavailable means no source, cache or default covers the pair
var ErrRateUnavailable = errors.New("currency: exchange rate unavailable")

// Source says where a rate came from
type Source string

const (
	SourceGateway Source = "gateway"
	SourceNaver   Source = "naver"
	SourceCache   Source = "cache"
	SourceStale   Source = "stale"
	SourceDefault Source = "default"
)

// Quote is a resolved rate
type Quote struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Rate      float64   `json:"rate"`
	Source    Source    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
}

type cachedRate struct {
	rate      float64
	fetchedAt time.Time
}

// rateResponse is the gateway's /api/currency/rate body
type rateResponse struct {
	Success bool    `json:"success"`
	Rate    float64 `json:"rate"`
	Error   string  `json:"error,omitempty"`
}

// Client resolves exchange rates: gateway, then Naver (USD/KRW only), then stale cache, then default
// ⭐ SSOT: 환율 조회는 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	naver      *naver.Client
	gatewayURL string
	logger     *logger.Logger

	mu    sync.RWMutex
	cache map[string]cachedRate
	now   func() time.Time
}

// NewClient creates a rate client. naverClient may be nil to disable the scrape fallback.
func NewClient(httpClient *httputil.Client, naverClient *naver.Client, gatewayURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		naver:      naverClient,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		logger:     log.WithComponent("currency"),
		cache:      make(map[string]cachedRate),
		now:        time.Now,
	}
}

func pairKey(from, to string) string {
	return from + "/" + to
}

// Rate returns the from→to rate
func (c *Client) Rate(ctx context.Context, from, to string) (float64, error) {
	q, err := c.Quote(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return q.Rate, nil
}

// Quote resolves a rate and reports its source
func (c *Client) Quote(ctx context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return Quote{}, fmt.Errorf("currency: from and to are required")
	}
	if from == to {
		return Quote{From: from, To: to, Rate: 1, Source: SourceDefault, FetchedAt: c.now()}, nil
	}

	key := pairKey(from, to)
	if cached, ok := c.cached(key); ok && c.now().Sub(cached.fetchedAt) < CacheTTL {
		return Quote{From: from, To: to, Rate: cached.rate, Source: SourceCache, FetchedAt: cached.fetchedAt}, nil
	}

	return c.fetch(ctx, from, to)
}

// Refresh bypasses the cache and refetches the pair
func (c *Client) Refresh(ctx context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	return c.fetch(ctx, from, to)
}

// Cached returns the last known rate regardless of age
func (c *Client) Cached(from, to string) (float64, bool) {
	cached, ok := c.cached(pairKey(strings.ToUpper(from), strings.ToUpper(to)))
	return cached.rate, ok
}

func (c *Client) fetch(ctx context.Context, from, to string) (Quote, error) {
	key := pairKey(from, to)

	rate, err := c.fromGateway(ctx, from, to)
	if err == nil {
		return c.remember(key, from, to, rate, SourceGateway), nil
	}
	c.logger.WithError(err).WithField("pair", key).Warn("Gateway rate failed")

	if rate, ok := c.fromNaver(ctx, from, to); ok {
		return c.remember(key, from, to, rate, SourceNaver), nil
	}

	if cached, ok := c.cached(key); ok {
		c.logger.WithField("pair", key).Warn("Serving stale exchange rate")
		return Quote{From: from, To: to, Rate: cached.rate, Source: SourceStale, FetchedAt: cached.fetchedAt}, nil
	}

	switch key {
	case pairKey(USD, KRW):
		c.logger.WithField("rate", DefaultUSDKRW).Warn("Using default exchange rate")
		return Quote{From: from, To: to, Rate: DefaultUSDKRW, Source: SourceDefault, FetchedAt: c.now()}, nil
	case pairKey(KRW, USD):
		return Quote{From: from, To: to, Rate: 1 / DefaultUSDKRW, Source: SourceDefault, FetchedAt: c.now()}, nil
	}

	return Quote{}, fmt.Errorf("%s: %w", key, ErrRateUnavailable)
}

func (c *Client) fromGateway(ctx context.Context, from, to string) (float64, error) {
	if c.gatewayURL == "" {
		return 0, fmt.Errorf("no gateway configured")
	}

	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)

	var resp rateResponse
	if err := c.httpClient.GetJSON(ctx, c.gatewayURL+"/api/currency/rate?"+params.Encode(), &resp); err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, fmt.Errorf("gateway rejected rate request: %s", resp.Error)
	}
	if resp.Rate <= 0 {
		return 0, fmt.Errorf("gateway returned non-positive rate %v", resp.Rate)
	}
	return resp.Rate, nil
}

func (c *Client) fromNaver(ctx context.Context, from, to string) (float64, bool) {
	if c.naver == nil {
		return 0, false
	}
	inverse := false
	switch pairKey(from, to) {
	case pairKey(USD, KRW):
	case pairKey(KRW, USD):
		inverse = true
	default:
		return 0, false
	}

	rate, err := c.naver.FetchExchangeRate(ctx, naver.MarketIndexUSDKRW)
	if err != nil {
		c.logger.WithError(err).Warn("Naver rate failed")
		return 0, false
	}
	if rate < minSaneUSDKRW || rate > maxSaneUSDKRW {
		c.logger.WithField("rate", rate).Warn("Naver rate out of range")
		return 0, false
	}

	if inverse {
		return 1 / rate, true
	}
	return rate, true
}

func (c *Client) cached(key string) (cachedRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.cache[key]
	return r, ok
}

func (c *Client) remember(key, from, to string, rate float64, source Source) Quote {
	now := c.now()
	c.mu.Lock()
	c.cache[key] = cachedRate{rate: rate, fetchedAt: now}
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"pair":   key,
		"rate":   rate,
		"source": source,
	}).Debug("Exchange rate updated")

	return Quote{From: from, To: to, Rate: rate, Source: source, FetchedAt: now}
}
