package risk

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEstimator() *Estimator {
	return NewEstimator(zerolog.New(nil).Level(zerolog.Disabled))
}

func TestEstimateParameterValidation(t *testing.T) {
	estimator := newTestEstimator()
	returns := []float64{0.01, -0.02, 0.005}

	valid := Params{
		Method:     MethodHistorical,
		Confidence: 0.95,
		Investment: 10000,
		Horizon:    1,
	}

	tests := []struct {
		name    string
		returns []float64
		mutate  func(*Params)
		wantErr error
	}{
		{
			name:    "confidence zero",
			returns: returns,
			mutate:  func(p *Params) { p.Confidence = 0 },
			wantErr: ErrInvalidConfidence,
		},
		{
			name:    "confidence one",
			returns: returns,
			mutate:  func(p *Params) { p.Confidence = 1 },
			wantErr: ErrInvalidConfidence,
		},
		{
			name:    "zero investment",
			returns: returns,
			mutate:  func(p *Params) { p.Investment = 0 },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative investment",
			returns: returns,
			mutate:  func(p *Params) { p.Investment = -5000 },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero horizon",
			returns: returns,
			mutate:  func(p *Params) { p.Horizon = 0 },
			wantErr: ErrInvalidHorizon,
		},
		{
			name:    "empty series",
			returns: []float64{},
			mutate:  func(p *Params) {},
			wantErr: ErrEmptySeries,
		},
		{
			name:    "unknown method",
			returns: returns,
			mutate:  func(p *Params) { p.Method = "monte_carlo" },
			wantErr: ErrUnsupportedMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := estimator.Estimate(tt.returns, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHistoricalVaRReferenceExample(t *testing.T) {
	estimator := newTestEstimator()

	// Returns derived from prices [100, 102, 101, 105] with a $10,000 position.
	// Losses: [-200, 98.0392..., -396.0396...]; the 95th percentile of those
	// losses with linear interpolation is 68.2352...
	returns := []float64{0.02, -0.00980392156862745, 0.039603960396039604}

	result, err := estimator.Estimate(returns, Params{
		Method:     MethodHistorical,
		Confidence: 0.95,
		Investment: 10000,
		Horizon:    1,
	})
	require.NoError(t, err)

	require.Len(t, result.Losses, 3)
	assert.InDelta(t, -200, result.Losses[0], 1e-9)
	assert.InDelta(t, 98.0392156862745, result.Losses[1], 1e-9)
	assert.InDelta(t, -396.0396039603961, result.Losses[2], 1e-9)

	assert.InDelta(t, 68.23529411764704, result.VaRAmount, 1e-9)
	assert.InDelta(t, result.Threshold, result.VaRAmount, 1e-12) // horizon 1: no scaling
	assert.InDelta(t, result.VaRAmount/10000*100, result.VaRPercent, 1e-12)
}

func TestHistoricalVaRMonotoneInConfidence(t *testing.T) {
	estimator := newTestEstimator()

	rng := rand.New(rand.NewSource(7))
	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = rng.NormFloat64() * 0.02
	}

	prev := math.Inf(-1)
	for _, confidence := range []float64{0.90, 0.95, 0.975, 0.99, 0.995} {
		result, err := estimator.Estimate(returns, Params{
			Method:     MethodHistorical,
			Confidence: confidence,
			Investment: 100000,
			Horizon:    1,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.VaRAmount, prev,
			"VaR must not decrease as confidence rises (c=%v)", confidence)
		prev = result.VaRAmount
	}
}

func TestVaRLinearInInvestment(t *testing.T) {
	estimator := newTestEstimator()
	returns := []float64{0.01, -0.03, 0.02, -0.01, 0.005, -0.02, 0.015}

	for _, method := range []Method{MethodHistorical, MethodVarianceCovariance} {
		base, err := estimator.Estimate(returns, Params{
			Method:     method,
			Confidence: 0.95,
			Investment: 10000,
			Horizon:    1,
		})
		require.NoError(t, err)

		doubled, err := estimator.Estimate(returns, Params{
			Method:     method,
			Confidence: 0.95,
			Investment: 20000,
			Horizon:    1,
		})
		require.NoError(t, err)

		assert.InDelta(t, 2*base.VaRAmount, doubled.VaRAmount, 1e-9,
			"method %s: VaR(2x amount) must equal 2x VaR(amount)", method)
	}
}

func TestHistoricalVaROrderIndependent(t *testing.T) {
	estimator := newTestEstimator()

	returns := []float64{0.01, -0.03, 0.02, -0.01, 0.005, -0.02, 0.015, 0.03, -0.04}
	params := Params{
		Method:     MethodHistorical,
		Confidence: 0.95,
		Investment: 50000,
		Horizon:    1,
	}

	base, err := estimator.Estimate(returns, params)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		permuted := make([]float64, len(returns))
		copy(permuted, returns)
		rng.Shuffle(len(permuted), func(a, b int) {
			permuted[a], permuted[b] = permuted[b], permuted[a]
		})

		result, err := estimator.Estimate(permuted, params)
		require.NoError(t, err)
		assert.InDelta(t, base.VaRAmount, result.VaRAmount, 1e-12)
	}
}

func TestVarianceCovarianceReferenceExample(t *testing.T) {
	estimator := newTestEstimator()

	// {mu-s, mu, mu+s} has sample mean mu and sample stddev s exactly
	s := 0.02
	returns := []float64{0.001 - s, 0.001, 0.001 + s}

	result, err := estimator.Estimate(returns, Params{
		Method:     MethodVarianceCovariance,
		Confidence: 0.99,
		Investment: 1000000,
		Horizon:    1,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.001, result.Mean, 1e-12)
	assert.InDelta(t, 0.02, result.StdDev, 1e-12)
	assert.InDelta(t, 2.3263478740408408, result.ZScore, 1e-9)

	// VaR amount = (z*sigma - mu) * investment ~= $45,527
	want := (2.3263478740408408*0.02 - 0.001) * 1000000
	assert.InDelta(t, want, result.VaRAmount, 1e-6)
	assert.InDelta(t, want/1000000*100, result.VaRPercent, 1e-9)
}

func TestVarianceCovarianceZeroMeanMode(t *testing.T) {
	estimator := newTestEstimator()

	returns := []float64{0.012, -0.008, 0.003, -0.015, 0.007, 0.001, -0.002}

	withMean, err := estimator.Estimate(returns, Params{
		Method:     MethodVarianceCovariance,
		Confidence: 0.95,
		Investment: 100000,
		Horizon:    1,
	})
	require.NoError(t, err)

	zeroMean, err := estimator.Estimate(returns, Params{
		Method:         MethodVarianceCovariance,
		Confidence:     0.95,
		Investment:     100000,
		Horizon:        1,
		AssumeZeroMean: true,
	})
	require.NoError(t, err)

	// Zero-mean VaR is exactly z * sigma * amount
	want := zeroMean.ZScore * zeroMean.StdDev * 100000
	assert.InDelta(t, want, zeroMean.VaRAmount, 1e-9)

	// The two modes differ by exactly mean * amount
	assert.InDelta(t, withMean.VaRAmount+withMean.Mean*100000, zeroMean.VaRAmount, 1e-9)
}

func TestHorizonScaling(t *testing.T) {
	estimator := newTestEstimator()
	returns := []float64{0.01, -0.03, 0.02, -0.01, 0.005, -0.02}

	for _, method := range []Method{MethodHistorical, MethodVarianceCovariance} {
		oneDay, err := estimator.Estimate(returns, Params{
			Method:     method,
			Confidence: 0.95,
			Investment: 10000,
			Horizon:    1,
		})
		require.NoError(t, err)

		tenDay, err := estimator.Estimate(returns, Params{
			Method:     method,
			Confidence: 0.95,
			Investment: 10000,
			Horizon:    10,
		})
		require.NoError(t, err)

		assert.InDelta(t, oneDay.VaRAmount*math.Sqrt(10), tenDay.VaRAmount, 1e-9,
			"method %s: square-root-of-time scaling", method)
	}
}

func TestMinimumLengthSeries(t *testing.T) {
	estimator := newTestEstimator()

	// A single return (two price observations) is statistically degenerate
	// but must be well-defined for both methods.
	returns := []float64{-0.02}

	historical, err := estimator.Estimate(returns, Params{
		Method:     MethodHistorical,
		Confidence: 0.95,
		Investment: 10000,
		Horizon:    1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 200, historical.VaRAmount, 1e-9) // the only loss

	parametric, err := estimator.Estimate(returns, Params{
		Method:     MethodVarianceCovariance,
		Confidence: 0.95,
		Investment: 10000,
		Horizon:    1,
	})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(parametric.VaRAmount))
	assert.Equal(t, 0.0, parametric.StdDev) // no sample deviation from one return

	// A zero deviation must still appear in the serialized payload
	payload, err := json.Marshal(parametric)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"std_dev":0`)
	assert.Contains(t, string(payload), `"mean":-0.02`)
}
