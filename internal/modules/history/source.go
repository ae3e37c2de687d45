package history

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/rs/zerolog"
)

// ErrNoData indicates a symbol has no usable price history
var ErrNoData = errors.New("no price history available")

// Provider fetches daily price history from an upstream market data source
type Provider interface {
	DailyHistory(symbol, period string) ([]domain.DailyPrice, error)
}

const (
	// DefaultMinObservations is the cache threshold below which a fetch
	// from the upstream provider is attempted
	DefaultMinObservations = 30

	// DefaultMaxObservations caps how many daily observations feed a
	// single calculation
	DefaultMaxObservations = 1260 // ~5 years of trading days
)

// Source serves aligned price tables from the local store, fetching from
// the upstream provider when the cache is thin. It implements the price
// source the risk service consumes.
type Source struct {
	store    *Store
	provider Provider
	period   string
	minObs   int
	maxObs   int
	log      zerolog.Logger
}

// NewSource creates a caching price source. provider may be nil, in which
// case only stored data is served.
func NewSource(store *Store, provider Provider, period string, log zerolog.Logger) *Source {
	return &Source{
		store:    store,
		provider: provider,
		period:   period,
		minObs:   DefaultMinObservations,
		maxObs:   DefaultMaxObservations,
		log:      log.With().Str("component", "price_source").Logger(),
	}
}

// PriceTable returns date-aligned close-price series for the given symbols.
// Only dates on which every symbol has an observation are kept, so the
// per-instrument return vectors line up row by row.
func (s *Source) PriceTable(symbols []string) (map[string]domain.PriceSeries, error) {
	table := make(map[string]domain.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		series, err := s.seriesFor(symbol)
		if err != nil {
			return nil, err
		}
		table[symbol] = series
	}

	return alignTable(table), nil
}

// Refresh fetches fresh history for a symbol and stores it
func (s *Source) Refresh(symbol string) error {
	if s.provider == nil {
		return fmt.Errorf("%w: no provider configured", ErrNoData)
	}

	prices, err := s.provider.DailyHistory(symbol, s.period)
	if err != nil {
		return fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	return s.store.Sync(symbol, prices)
}

func (s *Source) seriesFor(symbol string) (domain.PriceSeries, error) {
	series, err := s.store.CloseSeries(symbol, s.maxObs)
	if err != nil {
		return domain.PriceSeries{}, err
	}

	if series.Len() >= s.minObs || s.provider == nil {
		return series, nil
	}

	s.log.Info().
		Str("symbol", symbol).
		Int("cached", series.Len()).
		Msg("Cache below threshold, fetching from provider")

	if err := s.Refresh(symbol); err != nil {
		// Serve whatever the cache holds rather than failing the
		// calculation on a transient upstream error
		if series.Len() > 0 {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Fetch failed, using cached data")
			return series, nil
		}
		return domain.PriceSeries{}, err
	}

	return s.store.CloseSeries(symbol, s.maxObs)
}

// alignTable intersects the series on shared dates so every symbol keeps
// an observation for exactly the same trading days, oldest first
func alignTable(table map[string]domain.PriceSeries) map[string]domain.PriceSeries {
	if len(table) < 2 {
		return table
	}

	shared := make(map[time.Time]int)
	for _, series := range table {
		seen := make(map[time.Time]bool, series.Len())
		for _, p := range series.Points {
			d := p.Date.UTC().Truncate(24 * time.Hour)
			if !seen[d] {
				seen[d] = true
				shared[d]++
			}
		}
	}

	var dates []time.Time
	for d, count := range shared {
		if count == len(table) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	aligned := make(map[string]domain.PriceSeries, len(table))
	for symbol, series := range table {
		byDate := make(map[time.Time]float64, series.Len())
		for _, p := range series.Points {
			byDate[p.Date.UTC().Truncate(24*time.Hour)] = p.Close
		}

		points := make([]domain.PricePoint, len(dates))
		for i, d := range dates {
			points[i] = domain.PricePoint{Date: d, Close: byDate[d]}
		}
		aligned[symbol] = domain.PriceSeries{Symbol: symbol, Points: points}
	}

	return aligned
}
