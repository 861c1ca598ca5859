package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/pkg/config"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

func sampleResult() *contracts.CanonicalOptimizationResult {
	drawdown := -0.12
	score := 4.2
	return &contracts.CanonicalOptimizationResult{
		Original: contracts.PortfolioMetrics{
			Tickers:        []string{"AAPL", "GOOGL", "MSFT"},
			Weights:        []float64{0.4, 0.4, 0.2},
			ExpectedReturn: 0.15,
			Risk:           0.2,
			SharpeRatio:    0.75,
		},
		Optimized: contracts.PortfolioMetrics{
			Tickers:        []string{"AAPL", "GOOGL", "MSFT"},
			Weights:        []float64{0.5, 0.3, 0.2},
			ExpectedReturn: 0.16,
			Risk:           0.21,
			SharpeRatio:    0.76,
			MaxDrawdown:    &drawdown,
		},
		Improvement: contracts.Improvement{
			ReturnImprovement: 6.67,
			RiskChange:        5,
			SharpeImprovement: 1.33,
			ScoreImprovement:  &score,
		},
		Method:    contracts.MethodQuantum,
		Timestamp: "2024-05-01T09:30:00Z",
		Input: &contracts.OptimizationInput{
			Tickers:        []string{"AAPL", "GOOGL", "MSFT"},
			InitialWeights: []float64{0.4, 0.4, 0.2},
			RiskFactor:     0.5,
			Period:         contracts.Period1Year,
		},
		Warnings: []contracts.DataQualityWarning{
			{Code: contracts.WarnWeightSum, Section: "original", Message: "original weights sum to 0.9800"},
		},
	}
}

func slots(t *testing.T) map[string]Slot {
	t.Helper()
	cfg := &config.Config{Store: config.StoreConfig{
		Driver: config.StoreSQLite,
		Path:   filepath.Join(t.TempDir(), "store.db"),
	}}
	sqliteSlot, closeFn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { closeFn() })

	return map[string]Slot{
		"memory": NewMemorySlot(),
		"sqlite": sqliteSlot,
	}
}

func TestResultStore_RoundTrip(t *testing.T) {
	for name, slot := range slots(t) {
		t.Run(name, func(t *testing.T) {
			s := NewResultStore(slot, logger.Nop())
			ctx := context.Background()

			want := sampleResult()
			require.NoError(t, s.Save(ctx, want))

			got, ok := s.Load(ctx)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestResultStore_Overwrites(t *testing.T) {
	s := NewResultStore(NewMemorySlot(), logger.Nop())
	ctx := context.Background()

	first := sampleResult()
	second := sampleResult()
	second.Method = contracts.MethodClassical
	second.Timestamp = "2024-06-01T00:00:00Z"

	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, contracts.MethodClassical, got.Method)
	assert.Equal(t, "2024-06-01T00:00:00Z", got.Timestamp)
}

func TestResultStore_LoadMissing(t *testing.T) {
	s := NewResultStore(NewMemorySlot(), logger.Nop())

	got, ok := s.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)

	_, err := s.LoadStrict(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"optimized": [`},
		{"not an object", `"hello"`},
		{"foreign object", `{"theme":"dark"}`},
		{"wrong types", `{"optimized":{"tickers":"AAPL","weights":"x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := NewMemorySlot()
			ctx := context.Background()
			require.NoError(t, slot.Set(ctx, contracts.LastResultKey, []byte(tt.data)))

			s := NewResultStore(slot, logger.Nop()).WithMetrics(metrics.New())

			assert.NotPanics(t, func() {
				got, ok := s.Load(ctx)
				assert.False(t, ok)
				assert.Nil(t, got)
			})

			_, err := s.LoadStrict(ctx)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

type failingSlot struct{}

var errBackend = errors.New("backend down")

func (failingSlot) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBackend }
func (failingSlot) Set(context.Context, string, []byte) error         { return errBackend }
func (failingSlot) Delete(context.Context, string) error              { return errBackend }

func TestResultStore_BackendFailure(t *testing.T) {
	s := NewResultStore(failingSlot{}, logger.Nop())
	ctx := context.Background()

	err := s.Save(ctx, sampleResult())
	assert.ErrorIs(t, err, errBackend)

	got, ok := s.Load(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.ErrorIs(t, s.Clear(ctx), errBackend)
}

func TestResultStore_SaveNil(t *testing.T) {
	s := NewResultStore(NewMemorySlot(), logger.Nop())
	assert.Error(t, s.Save(context.Background(), nil))
}

func TestResultStore_Subscribe(t *testing.T) {
	s := NewResultStore(NewMemorySlot(), logger.Nop())
	ctx := context.Background()

	var seen []string
	cancel := s.Subscribe(func(r *contracts.CanonicalOptimizationResult) {
		seen = append(seen, r.Timestamp)
	})

	first := sampleResult()
	require.NoError(t, s.Save(ctx, first))

	cancel()
	require.NoError(t, s.Save(ctx, sampleResult()))

	assert.Equal(t, []string{first.Timestamp}, seen)
}

func TestResultStore_NoNotifyOnFailure(t *testing.T) {
	s := NewResultStore(failingSlot{}, logger.Nop())

	called := false
	s.Subscribe(func(*contracts.CanonicalOptimizationResult) { called = true })

	_ = s.Save(context.Background(), sampleResult())
	assert.False(t, called)
}

func TestResultStore_EmptyWarningsLoadAsNil(t *testing.T) {
	s := NewResultStore(NewMemorySlot(), logger.Nop())
	ctx := context.Background()

	r := sampleResult()
	r.Warnings = []contracts.DataQualityWarning{}
	require.NoError(t, s.Save(ctx, r))

	loaded, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Nil(t, loaded.Warnings)
}

func TestResultStore_Clear(t *testing.T) {
	s := NewResultStore(NewMemorySlot(), logger.Nop())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult()))
	require.NoError(t, s.Clear(ctx))

	_, ok := s.Load(ctx)
	assert.False(t, ok)
}

func TestPortfolioStore(t *testing.T) {
	for name, slot := range slots(t) {
		t.Run(name, func(t *testing.T) {
			s := NewPortfolioStore(slot, logger.Nop())
			ctx := context.Background()

			_, ok := s.Load(ctx)
			assert.False(t, ok)

			p := &contracts.Portfolio{
				Positions: []contracts.PortfolioPosition{
					{Ticker: "AAPL", Shares: 10, Name: "Apple"},
					{Ticker: "005930.KS", Shares: 3},
				},
				TotalValue: 2500,
			}
			require.NoError(t, s.Save(ctx, p))

			got, ok := s.Load(ctx)
			require.True(t, ok)
			assert.Equal(t, p, got)

			raw, found, err := slot.Get(ctx, contracts.CurrentPortfolioKey)
			require.NoError(t, err)
			require.True(t, found)
			assert.Contains(t, string(raw), `"portfolio":[`)
			assert.Contains(t, string(raw), `"totalValue":2500`)
		})
	}
}

func TestPortfolioStore_Invalid(t *testing.T) {
	slot := NewMemorySlot()
	s := NewPortfolioStore(slot, logger.Nop())
	ctx := context.Background()

	err := s.Save(ctx, &contracts.Portfolio{Positions: []contracts.PortfolioPosition{{Ticker: "AAPL", Shares: -1}}})
	assert.Error(t, err)

	require.NoError(t, slot.Set(ctx, contracts.CurrentPortfolioKey, []byte(`{"portfolio":[{"ticker":"A","shares":-5}]}`)))
	_, ok := s.Load(ctx)
	assert.False(t, ok)

	_, err = s.LoadStrict(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpen(t *testing.T) {
	slot, closeFn, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}})
	require.NoError(t, err)
	assert.IsType(t, &MemorySlot{}, slot)
	assert.NoError(t, closeFn())

	_, _, err = Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "etcd"}})
	assert.Error(t, err)
}
