package pricing

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-pricer/internal/testutil"
)

type americanCase struct {
	typ              OptionType
	S, X, T, r, b, v float64
}

func (c americanCase) key() string {
	return fmt.Sprintf("%s S=%g X=%g T=%g r=%g b=%g v=%g", c.typ, c.S, c.X, c.T, c.r, c.b, c.v)
}

// Dividend-paying calls across expiries, a stock put, and a few
// futures options.
var americanCases = []americanCase{
	{Call, 42, 40, 0.25, 0.04, -0.04, 0.35},
	{Call, 42, 40, 0.5, 0.04, -0.04, 0.35},
	{Call, 42, 40, 0.75, 0.04, -0.04, 0.35},
	{Call, 42, 40, 1, 0.04, -0.04, 0.35},
	{Call, 42, 40, 2, 0.04, -0.04, 0.35},
	{Put, 36, 40, 1, 0.06, 0.06, 0.2},
	{Put, 90, 100, 0.5, 0.1, 0, 0.25},
	{Call, 100, 100, 0.5, 0.1, 0, 0.35},
	{Put, 100, 100, 0.1, 0.1, 0, 0.15},
}

func TestAmericanPriceGolden(t *testing.T) {
	actual := make(map[string]float64, len(americanCases))
	for _, c := range americanCases {
		q, err := AmericanPrice(c.typ, c.S, c.X, c.T, c.r, c.b, c.v)
		require.NoError(t, err, c.key())
		require.False(t, q.Degraded, c.key())
		actual[c.key()] = q.Price
	}

	testutil.CompareWithGolden(t, "barone_adesi_whaley", actual, 1e-6)
}

func TestAmericanCallTermStructure(t *testing.T) {
	// reference values for S=42 X=40 r=0.04 b=-0.04 v=0.35
	want := map[float64]float64{
		0.25: 3.7231,
		0.5:  4.6458,
		0.75: 5.3129,
		1:    5.8441,
		2:    7.2981,
	}

	prev := 0.0
	for _, T := range []float64{0.25, 0.5, 0.75, 1, 2} {
		q, err := AmericanPrice(Call, 42, 40, T, 0.04, -0.04, 0.35)
		require.NoError(t, err)

		euro, err := GeneralizedPrice(Call, 42, 40, T, 0.04, -0.04, 0.35)
		require.NoError(t, err)

		assert.InDelta(t, want[T], q.Price, 1e-4, "T=%v", T)
		assert.Greater(t, q.Price, prev, "price must increase with expiry")
		assert.GreaterOrEqual(t, q.Price, euro)
		assert.InDelta(t, euro, q.European, 1e-12)
		assert.InDelta(t, q.Price-q.European, q.Premium, 1e-12)
		prev = q.Price
	}
}

func TestAmericanNotBelowEuropean(t *testing.T) {
	const X = 100.0
	for _, typ := range []OptionType{Call, Put} {
		for _, S := range []float64{20, 50, 80, 95, 100, 105, 120, 150, 300} {
			for _, T := range []float64{0.01, 0.1, 0.5, 1, 3} {
				for _, r := range []float64{0.01, 0.02, 0.08, 0.15} {
					for _, b := range []float64{-0.1, -0.02, 0, 0.02, 0.08} {
						for _, v := range []float64{0.05, 0.2, 0.5, 1} {
							q, err := AmericanPrice(typ, S, X, T, r, b, v)
							require.NoError(t, err)

							euro, err := GeneralizedPrice(typ, S, X, T, r, b, v)
							require.NoError(t, err)

							if q.Degraded {
								t.Fatalf("%s S=%v T=%v r=%v b=%v v=%v: boundary search did not converge", typ, S, T, r, b, v)
							}
							if q.Price < euro || q.Price < Intrinsic(typ, S, X) {
								t.Fatalf("%s S=%v T=%v r=%v b=%v v=%v: american %v below european %v or intrinsic",
									typ, S, T, r, b, v, q.Price, euro)
							}
						}
					}
				}
			}
		}
	}
}

func TestAmericanCallWithoutDividendsEqualsEuropean(t *testing.T) {
	for _, S := range []float64{60, 90, 100, 110, 160} {
		for _, T := range []float64{0.1, 1, 5} {
			for _, v := range []float64{0.1, 0.3, 0.9} {
				r := 0.05
				q, err := AmericanPrice(Call, S, 100, T, r, r, v)
				require.NoError(t, err)

				bs, err := EuropeanPrice(Call, S, 100, T, r, v)
				require.NoError(t, err)

				assert.InDelta(t, bs, q.Price, 1e-9)
				assert.Zero(t, q.Premium)
				assert.Zero(t, q.Iterations)
				assert.Equal(t, MethodNone, q.Method)
			}
		}
	}

	// positive carry above the rate is also never exercised early
	q, err := AmericanPrice(Call, 100, 100, 1, 0.02, 0.05, 0.25)
	require.NoError(t, err)
	euro, err := GeneralizedPrice(Call, 100, 100, 1, 0.02, 0.05, 0.25)
	require.NoError(t, err)
	assert.Equal(t, euro, q.Price)
}

func TestAmericanPutNonPositiveRate(t *testing.T) {
	for _, r := range []float64{0, -0.01} {
		q, err := AmericanPrice(Put, 95, 100, 1, r, r, 0.2)
		require.NoError(t, err)

		euro, err := GeneralizedPrice(Put, 95, 100, 1, r, r, 0.2)
		require.NoError(t, err)

		assert.Equal(t, euro, q.Price, "r=%v", r)
		assert.Zero(t, q.CriticalPrice)
	}
}

func TestAmericanDegenerateInputs(t *testing.T) {
	tests := []struct {
		name string
		typ  OptionType
		S, T float64
		v    float64
		want float64
	}{
		{"expired call", Call, 110, 0, 0.3, 10},
		{"expired put", Put, 110, 0, 0.3, 0},
		{"zero vol call", Call, 90, 1, 0, 0},
		{"zero vol put", Put, 90, 1, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := AmericanPrice(tt.typ, tt.S, 100, tt.T, 0.08, -0.02, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Price)
			assert.Equal(t, tt.want, q.European)
			assert.False(t, q.Degraded)
		})
	}
}

func TestAmericanInvalidInputs(t *testing.T) {
	tests := []struct {
		name             string
		typ              OptionType
		S, X, T, r, b, v float64
	}{
		{"zero spot", Put, 0, 100, 1, 0.05, 0.05, 0.2},
		{"negative strike", Call, 100, -100, 1, 0.05, 0.05, 0.2},
		{"negative expiry", Put, 100, 100, -1, 0.05, 0.05, 0.2},
		{"negative volatility", Call, 100, 100, 1, 0.05, 0, -0.2},
		{"NaN carry", Call, 100, 100, 1, 0.05, math.NaN(), 0.2},
		{"zero type", OptionType(0), 100, 100, 1, 0.05, 0.05, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AmericanPrice(tt.typ, tt.S, tt.X, tt.T, tt.r, tt.b, tt.v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}

	_, err := AmericanPrice(OptionType(3), 100, 100, 1, 0.05, 0.05, 0.2)
	assert.ErrorIs(t, err, ErrUnknownOptionType)
}

func TestAmericanCriticalPrice(t *testing.T) {
	q, err := AmericanPrice(Call, 42, 40, 0.25, 0.04, -0.04, 0.35)
	require.NoError(t, err)
	assert.InDelta(t, 52.7325, q.CriticalPrice, 1e-3)
	assert.Equal(t, MethodNewton, q.Method)
	assert.LessOrEqual(t, q.Iterations, DefaultMaxIterations)
	assert.False(t, q.Exercised)

	q, err = AmericanPrice(Put, 36, 40, 1, 0.06, 0.06, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 33.2038, q.CriticalPrice, 1e-3)
	assert.Less(t, q.CriticalPrice, 40.0)
}

func TestAmericanExerciseRegion(t *testing.T) {
	q, err := AmericanPrice(Put, 20, 40, 1, 0.06, 0.06, 0.2)
	require.NoError(t, err)
	assert.True(t, q.Exercised)
	assert.Equal(t, 20.0, q.Price)
	assert.Greater(t, q.Premium, 0.0)

	q, err = AmericanPrice(Call, 80, 40, 0.25, 0.04, -0.04, 0.35)
	require.NoError(t, err)
	assert.True(t, q.Exercised)
	assert.Equal(t, 40.0, q.Price)
}

func TestApproximatorNonConvergenceFallsBackToEuropean(t *testing.T) {
	a, err := NewApproximator(WithMaxIterations(1))
	require.NoError(t, err)

	for _, c := range []americanCase{
		{Call, 42, 40, 0.25, 0.04, -0.04, 0.35},
		{Put, 36, 40, 1, 0.06, 0.06, 0.2},
	} {
		q, err := a.Price(c.typ, c.S, c.X, c.T, c.r, c.b, c.v)
		require.NoError(t, err)

		euro, err := GeneralizedPrice(c.typ, c.S, c.X, c.T, c.r, c.b, c.v)
		require.NoError(t, err)

		assert.True(t, q.Degraded, c.key())
		assert.Equal(t, euro, q.Price, c.key())
		assert.Zero(t, q.CriticalPrice)
		assert.Zero(t, q.Premium)
	}
}

func TestNewApproximator(t *testing.T) {
	a, err := NewApproximator()
	require.NoError(t, err)
	assert.Equal(t, DefaultTolerance, a.Tolerance())
	assert.Equal(t, DefaultMaxIterations, a.MaxIterations())

	a, err = NewApproximator(WithTolerance(1e-8), WithMaxIterations(200))
	require.NoError(t, err)
	assert.Equal(t, 1e-8, a.Tolerance())
	assert.Equal(t, 200, a.MaxIterations())

	for _, opt := range []Option{
		WithTolerance(0),
		WithTolerance(-1e-6),
		WithTolerance(math.NaN()),
		WithTolerance(math.Inf(1)),
		WithMaxIterations(0),
	} {
		_, err := NewApproximator(opt)
		assert.Error(t, err)
	}
}

func TestApproximatorTighterToleranceAgrees(t *testing.T) {
	tight, err := NewApproximator(WithTolerance(1e-12), WithMaxIterations(500))
	require.NoError(t, err)

	for _, c := range americanCases {
		loose, err := AmericanPrice(c.typ, c.S, c.X, c.T, c.r, c.b, c.v)
		require.NoError(t, err)
		precise, err := tight.Price(c.typ, c.S, c.X, c.T, c.r, c.b, c.v)
		require.NoError(t, err)

		assert.False(t, precise.Degraded, c.key())
		assert.InDelta(t, precise.Price, loose.Price, 1e-5, c.key())
	}
}

func TestSolveCriticalPriceBisection(t *testing.T) {
	// low volatility with strongly negative carry sends the first Newton step
	// out of the admissible region for short-dated calls
	for _, c := range []americanCase{
		{Call, 100, 100, 0.25, 0.08, -0.3, 0.05},
		{Put, 100, 100, 0.25, 0.08, 0.3, 0.05},
	} {
		qd := newQuadratic(c.typ, c.X, c.T, c.r, c.b, c.v)

		res := bisect(qd, DefaultTolerance, DefaultMaxIterations)
		require.True(t, res.Converged, c.key())
		assert.Equal(t, MethodBisection, res.Method)
		assert.True(t, qd.admissible(res.Value), c.key())

		f, _ := qd.residual(res.Value)
		assert.InDelta(t, 0, f/c.X, 1e-4, c.key())

		full := solveCriticalPrice(qd, DefaultTolerance, DefaultMaxIterations)
		require.True(t, full.Converged, c.key())
		assert.InEpsilon(t, res.Value, full.Value, 1e-5, c.key())
	}
}

func TestAmericanVanishingRate(t *testing.T) {
	const X = 100.0
	for _, r := range []float64{1e-20, 1e-12, 1e-9, 1e-6} {
		for _, typ := range []OptionType{Call, Put} {
			for _, S := range []float64{20, 80, 100, 120, 300} {
				for _, T := range []float64{0.01, 0.5, 3} {
					for _, b := range []float64{-0.1, -1e-20, 0, 1e-12} {
						for _, v := range []float64{0.01, 0.2, 1} {
							q, err := AmericanPrice(typ, S, X, T, r, b, v)
							require.NoError(t, err)

							euro, err := GeneralizedPrice(typ, S, X, T, r, b, v)
							require.NoError(t, err)

							if q.Degraded {
								t.Fatalf("%s S=%v T=%v r=%v b=%v v=%v: boundary search did not converge", typ, S, T, r, b, v)
							}
							if q.Price < euro || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
								t.Fatalf("%s S=%v T=%v r=%v b=%v v=%v: american %v, european %v", typ, S, T, r, b, v, q.Price, euro)
							}
						}
					}
				}
			}
		}
	}
}

func TestQuadraticRateLimit(t *testing.T) {
	// K = 1 - e^(-rT) must not round to zero for tiny rates
	qd := newQuadratic(Call, 100, 1, 1e-20, -0.05, 0.2)
	assert.InEpsilon(t, 2/(0.2*0.2*1.0), qd.mk, 1e-9)
	assert.False(t, math.IsInf(qd.q, 0))

	zero := newQuadratic(Call, 100, 1, 0, -0.05, 0.2)
	assert.InEpsilon(t, zero.mk, qd.mk, 1e-9)

	// no admissible perpetual boundary at r -> 0
	assert.False(t, newQuadratic(Call, 100, 1, 1e-20, 0, 0.2).exercisable())
	assert.False(t, newQuadratic(Put, 100, 1, 1e-20, -0.1, 0.2).exercisable())
	assert.True(t, newQuadratic(Put, 100, 1, 0.06, 0.06, 0.2).exercisable())
}

func TestBisectFlatResidual(t *testing.T) {
	// at very low volatility the call residual rounds to exactly zero just
	// above the boundary
	qd := newQuadratic(Call, 100, 0.01, 1e-20, 0, 0.01)
	require.True(t, qd.exercisable())
	res := bisect(qd, DefaultTolerance, DefaultMaxIterations)
	require.True(t, res.Converged)
	assert.True(t, qd.admissible(res.Value))
	assert.Less(t, res.Value, 2*qd.x)
}
