// Package risk implements Value at Risk estimation over portfolio return
// series, using historical simulation or the variance-covariance method.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/riskcalc/pkg/formulas"
	"github.com/rs/zerolog"
)

// Method selects the VaR estimation method
type Method string

const (
	// MethodHistorical estimates VaR from the empirical loss distribution
	MethodHistorical Method = "historical"
	// MethodVarianceCovariance estimates VaR from a fitted normal distribution
	MethodVarianceCovariance Method = "variance_covariance"
)

var (
	// ErrInvalidConfidence indicates a confidence level outside (0, 1)
	ErrInvalidConfidence = errors.New("confidence level must be strictly between 0 and 1")
	// ErrInvalidAmount indicates a non-positive investment amount
	ErrInvalidAmount = errors.New("investment amount must be positive")
	// ErrEmptySeries indicates an empty return series
	ErrEmptySeries = errors.New("return series is empty")
	// ErrInvalidHorizon indicates a horizon below one period
	ErrInvalidHorizon = errors.New("horizon must be at least one period")
	// ErrUnsupportedMethod indicates an unknown method selector
	ErrUnsupportedMethod = errors.New("unsupported VaR method")
)

// Params holds the estimation parameters for a single VaR calculation
type Params struct {
	Method         Method  `json:"method"`
	Confidence     float64 `json:"confidence"`      // strictly between 0 and 1
	Investment     float64 `json:"investment"`      // positive currency amount at risk
	Horizon        int     `json:"horizon"`         // holding horizon in periods, >= 1
	AssumeZeroMean bool    `json:"assume_zero_mean"` // variance-covariance only: drop the mean term
}

// Result is the immutable outcome of one VaR calculation.
//
// VaRAmount is a positive number: the currency loss not expected to be
// exceeded at the given confidence over the horizon. VaRPercent is the same
// loss as a percentage of the investment.
type Result struct {
	Method     Method  `json:"method"`
	Confidence float64 `json:"confidence"`
	Horizon    int     `json:"horizon"`
	Investment float64 `json:"investment"`
	VaRAmount  float64 `json:"var_amount"`
	VaRPercent float64 `json:"var_percent"`

	// Historical method only: the single-period loss distribution the
	// percentile was taken from (losses are positive for losing periods)
	// and the percentile threshold before horizon scaling. The scalars
	// stay in the payload even when zero; a zero threshold or deviation
	// is a legitimate value, not an absence.
	Losses    []float64 `json:"losses,omitempty"`
	Threshold float64   `json:"threshold"`

	// Variance-covariance method only: the fitted distribution parameters.
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	ZScore float64 `json:"z_score"`
}

// Estimator computes VaR from a portfolio return series. It is stateless
// and safe for concurrent use.
type Estimator struct {
	log zerolog.Logger
}

// NewEstimator creates a new VaR estimator
func NewEstimator(log zerolog.Logger) *Estimator {
	return &Estimator{
		log: log.With().Str("component", "var_estimator").Logger(),
	}
}

// Estimate computes VaR for the given return series and parameters.
//
// The return series must be non-empty; results from very short series
// (below ~30 observations) are statistically weak, which is the caller's
// concern, not enforced here. Multi-period horizons scale the single-period
// VaR by the square root of the horizon.
func (e *Estimator) Estimate(returns []float64, p Params) (*Result, error) {
	if p.Confidence <= 0 || p.Confidence >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, p.Confidence)
	}
	if p.Investment <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAmount, p.Investment)
	}
	if p.Horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, p.Horizon)
	}
	if len(returns) == 0 {
		return nil, ErrEmptySeries
	}

	switch p.Method {
	case MethodHistorical:
		return e.historical(returns, p), nil
	case MethodVarianceCovariance:
		return e.varianceCovariance(returns, p), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, p.Method)
	}
}

// historical computes VaR as a percentile of the empirical loss
// distribution. Each periodic return becomes a loss of -return*investment
// (positive for losing periods); VaR is the confidence*100 percentile of
// those losses, with linear interpolation between order statistics.
func (e *Estimator) historical(returns []float64, p Params) *Result {
	losses := make([]float64, len(returns))
	for i, r := range returns {
		losses[i] = -r * p.Investment
	}

	threshold := formulas.Percentile(losses, p.Confidence*100)
	amount := threshold * math.Sqrt(float64(p.Horizon))

	e.log.Debug().
		Float64("confidence", p.Confidence).
		Int("observations", len(returns)).
		Float64("var_amount", amount).
		Msg("Historical VaR computed")

	return &Result{
		Method:     MethodHistorical,
		Confidence: p.Confidence,
		Horizon:    p.Horizon,
		Investment: p.Investment,
		VaRAmount:  amount,
		VaRPercent: amount / p.Investment * 100,
		Losses:     losses,
		Threshold:  threshold,
	}
}

// varianceCovariance computes VaR from a normal distribution fitted to the
// return series: the loss fraction is z(confidence)*sigma - mu, or
// z(confidence)*sigma when the mean is assumed zero. Sigma is the sample
// standard deviation (N-1 denominator); a single-observation series has no
// sample deviation and yields sigma = 0.
func (e *Estimator) varianceCovariance(returns []float64, p Params) *Result {
	mu := formulas.Mean(returns)
	sigma := formulas.StdDev(returns)
	z := formulas.ZScore(p.Confidence)

	fraction := z * sigma
	if !p.AssumeZeroMean {
		fraction -= mu
	}
	fraction *= math.Sqrt(float64(p.Horizon))

	amount := fraction * p.Investment

	e.log.Debug().
		Float64("confidence", p.Confidence).
		Float64("mean", mu).
		Float64("std_dev", sigma).
		Float64("var_amount", amount).
		Msg("Variance-covariance VaR computed")

	return &Result{
		Method:     MethodVarianceCovariance,
		Confidence: p.Confidence,
		Horizon:    p.Horizon,
		Investment: p.Investment,
		VaRAmount:  amount,
		VaRPercent: fraction * 100,
		Mean:       mu,
		StdDev:     sigma,
		ZScore:     z,
	}
}
