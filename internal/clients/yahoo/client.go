// Package yahoo implements market data retrieval using the go-yfinance library.
package yahoo

import (
	"fmt"
	"time"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

const defaultMaxRetries = 3

// Client fetches daily price history from Yahoo Finance
type Client struct {
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		maxRetries: defaultMaxRetries,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// DailyHistory fetches adjusted daily OHLCV bars for a symbol over the
// given period (e.g. "1y", "2y", "max"). Transient failures are retried
// with exponential backoff.
func (c *Client) DailyHistory(symbol, period string) ([]domain.DailyPrice, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			c.log.Warn().
				Err(lastErr).
				Str("symbol", symbol).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("Retrying history fetch")
			time.Sleep(wait)
		}

		bars, err := c.fetchHistory(symbol, period)
		if err != nil {
			lastErr = err
			continue
		}

		return bars, nil
	}

	return nil, fmt.Errorf("failed to fetch history for %s after %d attempts: %w", symbol, c.maxRetries, lastErr)
}

func (c *Client) fetchHistory(symbol, period string) ([]domain.DailyPrice, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	prices := make([]domain.DailyPrice, 0, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}

		volume := int64(bar.Volume)
		prices = append(prices, domain.DailyPrice{
			Date:   bar.Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: &volume,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("period", period).
		Int("bars", len(prices)).
		Msg("Fetched daily history")

	return prices, nil
}
