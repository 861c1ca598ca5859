package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
)

// DefaultBaseURL is the public Naver Finance host
const DefaultBaseURL = "https://finance.naver.com"

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Naver Finance client. An empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("naver"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// fetchHTML fetches an HTML page from Naver Finance
func (c *Client) fetchHTML(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	header := http.Header{}
	header.Set("Accept", "text/html")
	header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.GetWithHeader(ctx, fullURL, header)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}
