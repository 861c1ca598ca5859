package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/internal/api/handlers"
	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/prober"
	"github.com/wonny/quantafolio/internal/settings"
	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/internal/validation"
	"github.com/wonny/quantafolio/internal/workflow"
	"github.com/wonny/quantafolio/pkg/config"
	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

type fakeRunner struct {
	result *contracts.CanonicalOptimizationResult
	err    error
	got    workflow.Options
}

func (f *fakeRunner) Run(_ context.Context, opts workflow.Options) (*contracts.CanonicalOptimizationResult, error) {
	f.got = opts
	return f.result, f.err
}

type bridge struct {
	server  *httptest.Server
	results *store.ResultStore
	runner  *fakeRunner
	hub     *handlers.ResultHub
}

func newBridge(t *testing.T) *bridge {
	t.Helper()
	log := logger.Nop()
	slot := store.NewMemorySlot()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"UP"}`))
	}))
	t.Cleanup(backend.Close)

	results := store.NewResultStore(slot, log)
	p := prober.New(httputil.New(&config.Config{}, log), log, prober.PolicyLenient)
	runner := &fakeRunner{}
	hub := handlers.NewResultHub(results, log)
	t.Cleanup(hub.Close)

	router := NewRouter(Handlers{
		Results:   handlers.NewResultHandler(results, log),
		Portfolio: handlers.NewPortfolioHandler(store.NewPortfolioStore(slot, log), log),
		Settings:  handlers.NewSettingsHandler(settings.NewProvider(context.Background(), slot, log), log),
		Status:    handlers.NewStatusHandler(prober.NewMonitor(p, []string{backend.URL}, time.Second), nil, log),
		Optimize:  handlers.NewOptimizeHandler(runner, log),
		Hub:       hub,
		Metrics:   metrics.New().Handler(),
	}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &bridge{server: srv, results: results, runner: runner, hub: hub}
}

func (b *bridge) do(t *testing.T, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, b.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func sampleResult() *contracts.CanonicalOptimizationResult {
	return &contracts.CanonicalOptimizationResult{
		Original: contracts.PortfolioMetrics{
			Tickers: []string{"AAPL", "MSFT"},
			Weights: []float64{0.5, 0.5},
		},
		Optimized: contracts.PortfolioMetrics{
			Tickers:        []string{"AAPL", "MSFT"},
			Weights:        []float64{0.6, 0.4},
			ExpectedReturn: 0.12,
			Risk:           0.18,
			SharpeRatio:    0.67,
		},
		Method:    contracts.MethodClassical,
		Timestamp: "2026-01-02T03:04:05Z",
	}
}

func TestHealth(t *testing.T) {
	b := newBridge(t)
	resp, body := b.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestLatestResult(t *testing.T) {
	b := newBridge(t)

	resp, _ := b.do(t, http.MethodGet, "/api/results/latest", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, b.results.Save(context.Background(), sampleResult()))

	resp, body := b.do(t, http.MethodGet, "/api/results/latest", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "classical", body["method"])
	optimized := body["optimized"].(map[string]interface{})
	assert.Equal(t, []interface{}{"AAPL", "MSFT"}, optimized["tickers"])

	resp, _ = b.do(t, http.MethodDelete, "/api/results/latest", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = b.do(t, http.MethodGet, "/api/results/latest", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPortfolio(t *testing.T) {
	b := newBridge(t)

	resp, _ := b.do(t, http.MethodGet, "/api/portfolio", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = b.do(t, http.MethodPut, "/api/portfolio", `{"portfolio":[{"ticker":"AAPL","shares":-1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = b.do(t, http.MethodPut, "/api/portfolio", `{"bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = b.do(t, http.MethodPut, "/api/portfolio", `{"portfolio":[{"ticker":"AAPL","shares":10},{"ticker":"MSFT","shares":5}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := b.do(t, http.MethodGet, "/api/portfolio", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["portfolio"], 2)
}

func TestSettings(t *testing.T) {
	b := newBridge(t)

	resp, body := b.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ko", body["language"])

	resp, body = b.do(t, http.MethodPut, "/api/settings", `{"language":"en","autoSave":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "en", body["language"])
	assert.Equal(t, true, body["autoSave"])
	assert.Equal(t, "light", body["theme"])

	resp, _ = b.do(t, http.MethodPut, "/api/settings", `{"theme":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = b.do(t, http.MethodGet, "/api/settings", "")
	assert.Equal(t, "light", body["theme"])
}

func TestStatus(t *testing.T) {
	b := newBridge(t)

	resp, body := b.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	backend := body["backend"].(map[string]interface{})
	assert.Equal(t, true, backend["reachable"])
}

func TestOptimize(t *testing.T) {
	b := newBridge(t)
	b.runner.result = sampleResult()

	resp, body := b.do(t, http.MethodPost, "/api/optimize", `{"tickers":["AAPL","MSFT"],"method":"classical"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["result"])
	assert.Nil(t, body["saveError"])
	assert.Equal(t, workflow.DefaultRiskFactor, b.runner.got.RiskFactor)
	assert.Equal(t, contracts.MethodClassical, b.runner.got.Method)
}

func TestOptimize_ZeroRiskFactorKept(t *testing.T) {
	b := newBridge(t)
	b.runner.result = sampleResult()

	resp, _ := b.do(t, http.MethodPost, "/api/optimize", `{"tickers":["AAPL","MSFT"],"riskFactor":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, b.runner.got.RiskFactor)
}

func TestOptimize_ErrorMapping(t *testing.T) {
	b := newBridge(t)
	b.runner.err = &validation.Error{Kind: validation.ErrTooFewTickers, Message: "at least 2 tickers"}

	resp, body := b.do(t, http.MethodPost, "/api/optimize", `{"tickers":["AAPL"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	b.runner.err = workflow.ErrInFlight
	resp, _ = b.do(t, http.MethodPost, "/api/optimize", `{}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	b := newBridge(t)
	resp, err := http.Get(b.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResultsWebsocket(t *testing.T) {
	b := newBridge(t)
	first := sampleResult()
	require.NoError(t, b.results.Save(context.Background(), first))

	wsURL := "ws" + strings.TrimPrefix(b.server.URL, "http") + "/ws/results"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg handlers.ResultMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, handlers.MessageTypeResult, msg.Type)
	require.NotNil(t, msg.Result)
	assert.Equal(t, contracts.MethodClassical, msg.Result.Method)

	require.Eventually(t, func() bool { return b.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	second := sampleResult()
	second.Method = contracts.MethodQuantum
	require.NoError(t, b.results.Save(context.Background(), second))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, contracts.MethodQuantum, msg.Result.Method)
}

func TestStatusForConnectivityError(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, handlers.StatusFor(&prober.ConnectivityError{}))
}
