// Package returns builds portfolio-level return series from aligned price
// histories and position weights.
package returns

import (
	"errors"
	"fmt"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/pkg/formulas"
	"github.com/rs/zerolog"
)

var (
	// ErrInsufficientData indicates fewer than two aligned observations
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrInvalidWeight indicates a negative weight or weights summing to zero
	ErrInvalidWeight = errors.New("invalid portfolio weight")
	// ErrUnknownInstrument indicates a weighted instrument without a price series
	ErrUnknownInstrument = errors.New("no price series for weighted instrument")
	// ErrMisalignedSeries indicates price series whose date indexes differ.
	// Alignment is the data layer's job; reaching the builder with misaligned
	// series is a precondition failure, not something to patch over here.
	ErrMisalignedSeries = errors.New("price series date indexes are not aligned")
)

// Builder converts a price table and portfolio weights into a single
// portfolio return series
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new return series builder
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "returns_builder").Logger(),
	}
}

// PortfolioReturns computes the weighted portfolio return series from a
// table of aligned price series. Instrument returns are simple periodic
// returns (p[t]-p[t-1])/p[t-1]; the portfolio return at each period is the
// weight-normalized sum of instrument returns. The result has length N-1
// for N price observations.
//
// Weights need not sum to 1 (absolute notional amounts are fine); they are
// normalized internally. Weights that are zero contribute nothing but their
// instrument must still have a price series.
func (b *Builder) PortfolioReturns(table map[string]domain.PriceSeries, weights map[string]float64) ([]float64, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no instruments weighted", ErrInvalidWeight)
	}

	totalWeight := 0.0
	for symbol, weight := range weights {
		if weight < 0 {
			return nil, fmt.Errorf("%w: %s has negative weight %.4f", ErrInvalidWeight, symbol, weight)
		}
		totalWeight += weight
	}
	if totalWeight == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeight)
	}

	if err := b.checkAlignment(table, weights); err != nil {
		return nil, err
	}

	// Per-instrument returns, all the same length after the alignment check
	instrumentReturns := make(map[string][]float64, len(weights))
	periods := 0
	for symbol := range weights {
		rets := formulas.CalculateReturns(table[symbol].Closes())
		instrumentReturns[symbol] = rets
		periods = len(rets)
	}

	portfolioReturns := make([]float64, periods)
	for symbol, rets := range instrumentReturns {
		weight := weights[symbol] / totalWeight
		for i, r := range rets {
			portfolioReturns[i] += weight * r
		}
	}

	b.log.Debug().
		Int("instruments", len(weights)).
		Int("periods", periods).
		Msg("Built portfolio return series")

	return portfolioReturns, nil
}

// checkAlignment verifies every weighted instrument has a series of at least
// two observations and that all series share the same date index.
func (b *Builder) checkAlignment(table map[string]domain.PriceSeries, weights map[string]float64) error {
	var reference domain.PriceSeries
	haveReference := false

	for symbol := range weights {
		series, ok := table[symbol]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
		}
		if series.Len() < 2 {
			return fmt.Errorf("%w: %s has %d aligned observations, need at least 2",
				ErrInsufficientData, symbol, series.Len())
		}

		if !haveReference {
			reference = series
			haveReference = true
			continue
		}

		if series.Len() != reference.Len() {
			return fmt.Errorf("%w: %s has %d observations, %s has %d",
				ErrMisalignedSeries, symbol, series.Len(), reference.Symbol, reference.Len())
		}
		for i := range series.Points {
			if !series.Points[i].Date.Equal(reference.Points[i].Date) {
				return fmt.Errorf("%w: %s and %s differ at index %d",
					ErrMisalignedSeries, symbol, reference.Symbol, i)
			}
		}
	}

	return nil
}
