// Package stocks looks up tickers through the gateway's stock search.
package stocks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
)

// Market filters accepted by the gateway
const (
	MarketAll = "ALL"
	MarketKR  = "KR"
	MarketUS  = "US"
)

// DefaultInterval is the minimum spacing between search requests
const DefaultInterval = 300 * time.Millisecond

// ErrSearchFailed means the gateway answered but reported failure
var ErrSearchFailed = errors.New("stocks: search failed")

// Stock is one search hit
type Stock struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name"`
	Exchange     string   `json:"exchange,omitempty"`
	Market       string   `json:"market,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
}

// DisplayName is "TICKER - Name"
func (s Stock) DisplayName() string {
	if s.Name == "" {
		return s.Ticker
	}
	return s.Ticker + " - " + s.Name
}

// wireStock accepts both the ticker and symbol spellings
type wireStock struct {
	Ticker       string   `json:"ticker"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Exchange     string   `json:"exchange"`
	Market       string   `json:"market"`
	Currency     string   `json:"currency"`
	CurrentPrice *float64 `json:"currentPrice"`
}

// searchResponse is the gateway envelope; hits arrive under data or results
type searchResponse struct {
	Success bool        `json:"success"`
	Data    []wireStock `json:"data"`
	Results []wireStock `json:"results"`
	Error   string      `json:"error"`
}

// Client searches stocks
// ⭐ SSOT: 종목 검색 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	timeout    time.Duration
	logger     *logger.Logger
}

// NewClient creates a search client. Requests are spaced at least interval apart.
func NewClient(httpClient *httputil.Client, gatewayURL string, timeout, interval time.Duration, log *logger.Logger) *Client {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Client{
		httpClient: httpClient.Clone().WithRateLimit(rate.NewLimiter(rate.Every(interval), 1)),
		baseURL:    strings.TrimRight(gatewayURL, "/"),
		timeout:    timeout,
		logger:     log.WithComponent("stocks"),
	}
}

// Search queries all markets. An empty query returns nil without a request.
func (c *Client) Search(ctx context.Context, query string) ([]Stock, error) {
	return c.SearchMarket(ctx, query, MarketAll)
}

// SearchMarket queries one market (KR, US or ALL)
func (c *Client) SearchMarket(ctx context.Context, query, market string) ([]Stock, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	market = strings.ToUpper(strings.TrimSpace(market))
	switch market {
	case "":
		market = MarketAll
	case MarketAll, MarketKR, MarketUS:
	default:
		return nil, fmt.Errorf("stocks: unknown market %q", market)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("market", market)

	var resp searchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/api/stocks/search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, resp.Error)
	}

	hits := resp.Data
	if len(hits) == 0 {
		hits = resp.Results
	}

	stocks := make([]Stock, 0, len(hits))
	for _, h := range hits {
		ticker := h.Ticker
		if ticker == "" {
			ticker = h.Symbol
		}
		if ticker == "" {
			continue
		}
		stocks = append(stocks, Stock{
			Ticker:       ticker,
			Name:         h.Name,
			Exchange:     h.Exchange,
			Market:       h.Market,
			Currency:     h.Currency,
			CurrentPrice: h.CurrentPrice,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"query":  query,
		"market": market,
		"count":  len(stocks),
	}).Debug("Stock search completed")

	return stocks, nil
}
