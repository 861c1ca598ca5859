package naver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/pkg/config"
	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
)

const exchangePage = `<html><body>
<div class="head_info">
  <p class="no_today">
    <em class="no_up">
      <span class="no1">1</span><span class="shim">,</span><span class="no3">3</span><span class="no8">8</span><span class="no5">5</span><span class="jum">.</span><span class="no5">5</span><span class="no0">0</span>
    </em>
    <span class="txt_won">원</span>
  </p>
</div>
</body></html>`

func TestParseExchangeHTML(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    float64
		wantErr bool
	}{
		{"split digits", exchangePage, 1385.50, false},
		{"plain text", `<p class="no_today">1,402.3</p>`, 1402.3, false},
		{"no separators", `<p class="no_today">1385.5</p>`, 1385.5, false},
		{"no quote", `<div>nothing here</div>`, 0, true},
		{"empty quote", `<p class="no_today"> </p>`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExchangeHTML([]byte(tt.html))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrRateNotFound))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFetchExchangeRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/marketindex/exchangeDetail.naver", r.URL.Path)
		assert.Equal(t, MarketIndexUSDKRW, r.URL.Query().Get("marketindexCd"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(exchangePage))
	}))
	defer server.Close()

	log := logger.Nop()
	c := NewClient(httputil.New(&config.Config{}, log), log, server.URL)

	rate, err := c.FetchExchangeRate(context.Background(), MarketIndexUSDKRW)
	require.NoError(t, err)
	assert.InDelta(t, 1385.50, rate, 1e-9)
}

func TestFetchExchangeRate_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	log := logger.Nop()
	c := NewClient(httputil.New(&config.Config{}, log).DisableRetry(), log, server.URL)

	_, err := c.FetchExchangeRate(context.Background(), MarketIndexUSDKRW)
	assert.Error(t, err)
}
