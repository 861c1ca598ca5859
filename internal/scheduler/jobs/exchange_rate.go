package jobs

import (
	"context"
	"time"

	"github.com/wonny/quantafolio/internal/currency"
	"github.com/wonny/quantafolio/pkg/logger"
)

// ExchangeRateJob keeps the USD/KRW rate warm
type ExchangeRateJob struct {
	client   *currency.Client
	interval time.Duration
	logger   *logger.Logger
}

// NewExchangeRateJob creates an exchange rate refresh job
func NewExchangeRateJob(client *currency.Client, interval time.Duration, log *logger.Logger) *ExchangeRateJob {
	return &ExchangeRateJob{
		client:   client,
		interval: interval,
		logger:   log.WithComponent("exchange_rate_job"),
	}
}

// Name returns the job name
func (j *ExchangeRateJob) Name() string {
	return "exchange_rate_refresh"
}

// Schedule returns the cron schedule (RATE_REFRESH_INTERVAL)
func (j *ExchangeRateJob) Schedule() string {
	return every(j.interval)
}

// Run refetches USD/KRW, bypassing the cache.
// Fallbacks (stale cache, default) still count as a successful run.
func (j *ExchangeRateJob) Run(ctx context.Context) error {
	quote, err := j.client.Refresh(ctx, currency.USD, currency.KRW)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"rate":   quote.Rate,
		"source": quote.Source,
	}).Debug("Exchange rate refreshed")
	return nil
}
