package naver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Market index codes understood by FetchExchangeRate
const (
	MarketIndexUSDKRW = "FX_USDKRW"
)

// ErrRateNotFound means the page loaded but carried no readable rate
var ErrRateNotFound = errors.New("naver: exchange rate not found in page")

var rateRe = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// FetchExchangeRate scrapes the current rate for a market index code such as FX_USDKRW
// ⭐ SSOT: Naver 환율 스크래핑은 이 함수에서만
func (c *Client) FetchExchangeRate(ctx context.Context, marketIndexCode string) (float64, error) {
	params := url.Values{}
	params.Set("marketindexCd", marketIndexCode)

	body, err := c.fetchHTML(ctx, "/marketindex/exchangeDetail.naver", params)
	if err != nil {
		return 0, err
	}

	rate, err := parseExchangeHTML(body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", marketIndexCode, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"code": marketIndexCode,
		"rate": rate,
	}).Debug("Fetched exchange rate")
	return rate, nil
}

// parseExchangeHTML reads the headline quote.
// The page splits digits across <span>/<em> tags, so the text is joined before matching.
func parseExchangeHTML(html []byte) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range []string{"p.no_today", ".no_today", "#exchangeDetail .value"} {
		text := strings.Join(strings.Fields(doc.Find(sel).First().Text()), "")
		if text == "" {
			continue
		}
		if rate, ok := firstNumber(text); ok {
			return rate, nil
		}
	}

	return 0, ErrRateNotFound
}

func firstNumber(s string) (float64, bool) {
	m := rateRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
