package risk

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/rs/zerolog"
)

// ErrPriceSource wraps failures to load price data from the configured source
var ErrPriceSource = errors.New("price source failure")

// ErrInvalidDateRange indicates a malformed or inverted request date range
var ErrInvalidDateRange = errors.New("invalid date range")

// PriceSource supplies aligned close-price histories for a set of
// instruments. Implementations own data fetching and date-index
// intersection; the engine never touches the network.
type PriceSource interface {
	PriceTable(symbols []string) (map[string]domain.PriceSeries, error)
}

// Request is one VaR calculation request as received from the API surface
type Request struct {
	// Positions maps instrument symbol to a non-negative weight or notional
	// amount. Weights need not sum to 1.
	Positions map[string]float64 `json:"positions"`

	Method         Method  `json:"method"`
	Confidence     float64 `json:"confidence"`
	Investment     float64 `json:"investment"`
	Horizon        int     `json:"horizon,omitempty"`
	AssumeZeroMean bool    `json:"assume_zero_mean,omitempty"`

	// Optional date range (inclusive, "2006-01-02"). Empty means all
	// available history.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Report is the full calculation outcome handed to the API surface:
// the VaR result plus chart-ready payloads.
type Report struct {
	Result       *Result    `json:"result"`
	Symbols      []string   `json:"symbols"`
	Observations int        `json:"observations"`
	Histogram    *Histogram `json:"histogram,omitempty"`
}

// Service wires the price source, return series builder and estimator into
// a single calculation entry point. Each call is independent; nothing is
// cached between invocations.
type Service struct {
	prices    PriceSource
	builder   *returns.Builder
	estimator *Estimator
	log       zerolog.Logger
}

// NewService creates a new VaR calculation service
func NewService(prices PriceSource, builder *returns.Builder, estimator *Estimator, log zerolog.Logger) *Service {
	return &Service{
		prices:    prices,
		builder:   builder,
		estimator: estimator,
		log:       log.With().Str("service", "risk").Logger(),
	}
}

// histogramBins matches the fixed bin count used by the returns
// distribution chart.
const histogramBins = 50

const dateLayout = "2006-01-02"

// clipTable restricts every series to the inclusive [start, end] window.
// Empty bounds are open ends.
func clipTable(table map[string]domain.PriceSeries, start, end string) (map[string]domain.PriceSeries, error) {
	if start == "" && end == "" {
		return table, nil
	}

	var from, to time.Time
	var err error
	if start != "" {
		from, err = time.Parse(dateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("%w: start %q", ErrInvalidDateRange, start)
		}
	}
	if end != "" {
		to, err = time.Parse(dateLayout, end)
		if err != nil {
			return nil, fmt.Errorf("%w: end %q", ErrInvalidDateRange, end)
		}
	}
	if start != "" && end != "" && to.Before(from) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidDateRange, end, start)
	}

	clipped := make(map[string]domain.PriceSeries, len(table))
	for symbol, series := range table {
		var points []domain.PricePoint
		for _, p := range series.Points {
			if start != "" && p.Date.Before(from) {
				continue
			}
			if end != "" && p.Date.After(to) {
				continue
			}
			points = append(points, p)
		}
		clipped[symbol] = domain.PriceSeries{Symbol: symbol, Points: points}
	}

	return clipped, nil
}

// Compute runs one VaR calculation end to end: load prices, build the
// portfolio return series, estimate VaR. A zero horizon defaults to one
// period.
func (s *Service) Compute(req Request) (*Report, error) {
	if req.Horizon == 0 {
		req.Horizon = 1
	}

	symbols := make([]string, 0, len(req.Positions))
	for symbol := range req.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	table, err := s.prices.PriceTable(symbols)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceSource, err)
	}

	table, err = clipTable(table, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	portfolioReturns, err := s.builder.PortfolioReturns(table, req.Positions)
	if err != nil {
		return nil, err
	}

	result, err := s.estimator.Estimate(portfolioReturns, Params{
		Method:         req.Method,
		Confidence:     req.Confidence,
		Investment:     req.Investment,
		Horizon:        req.Horizon,
		AssumeZeroMean: req.AssumeZeroMean,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Result:       result,
		Symbols:      symbols,
		Observations: len(portfolioReturns),
	}
	if result.Method == MethodHistorical {
		report.Histogram = NewHistogram(result.Losses, histogramBins)
	}

	s.log.Info().
		Str("method", string(result.Method)).
		Strs("symbols", symbols).
		Float64("confidence", result.Confidence).
		Float64("var_amount", result.VaRAmount).
		Msg("VaR calculation completed")

	return report, nil
}
