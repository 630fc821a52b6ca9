package pricing

import (
	"fmt"
	"math"
)

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 50
)

// Quote is the result of an American valuation.
type Quote struct {
	Price    float64 `json:"price"`
	European float64 `json:"european"` // generalized Black-Scholes value with the same b
	Premium  float64 `json:"premium"`  // Price - European

	// CriticalPrice is the early exercise boundary S*; zero when no boundary
	// was needed (degenerate inputs, or no early exercise premium).
	CriticalPrice float64     `json:"critical_price,omitempty"`
	Iterations    int         `json:"iterations,omitempty"`
	Method        SolveMethod `json:"method,omitempty"`

	// Exercised is set when the spot is at or past the boundary, so Price is
	// the intrinsic value.
	Exercised bool `json:"exercised,omitempty"`

	// Degraded is set when the boundary search did not converge. Price then
	// falls back to European, a lower bound of the true value.
	Degraded bool `json:"degraded,omitempty"`
}

// Approximator prices American options with the Barone-Adesi & Whaley (1987)
// quadratic approximation. The zero value is not usable; see NewApproximator.
type Approximator struct {
	tolerance     float64
	maxIterations int
}

// Option configures an Approximator.
type Option func(*Approximator)

// WithTolerance sets the relative change in S* below which the boundary search stops.
func WithTolerance(tol float64) Option {
	return func(a *Approximator) { a.tolerance = tol }
}

// WithMaxIterations caps each phase of the boundary search.
func WithMaxIterations(n int) Option {
	return func(a *Approximator) { a.maxIterations = n }
}

// NewApproximator returns an Approximator with DefaultTolerance and
// DefaultMaxIterations unless overridden.
func NewApproximator(opts ...Option) (*Approximator, error) {
	a := &Approximator{
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	if !(a.tolerance > 0) || math.IsInf(a.tolerance, 0) {
		return nil, fmt.Errorf("pricing: tolerance must be positive and finite, got %v", a.tolerance)
	}
	if a.maxIterations < 1 {
		return nil, fmt.Errorf("pricing: max iterations must be >= 1, got %d", a.maxIterations)
	}
	return a, nil
}

var defaultApproximator = &Approximator{
	tolerance:     DefaultTolerance,
	maxIterations: DefaultMaxIterations,
}

// AmericanPrice approximates an American option with the default solver settings.
func AmericanPrice(typ OptionType, S, X, T, r, b, v float64) (Quote, error) {
	return defaultApproximator.Price(typ, S, X, T, r, b, v)
}

// Tolerance returns the configured convergence tolerance.
func (a *Approximator) Tolerance() float64 { return a.tolerance }

// MaxIterations returns the configured iteration cap.
func (a *Approximator) MaxIterations() int { return a.maxIterations }

// Price approximates the value of an American option.
//
// Calls with b >= r and puts with r <= 0 are never exercised early and are
// priced as European options with carry b, as are options whose perpetual
// exercise boundary is out of reach at vanishing rates. Otherwise the critical price S* is
// found iteratively and the early exercise premium A·(S/S*)^q is added to the
// European value, or the intrinsic value is returned when the spot is already
// inside the exercise region.
func (a *Approximator) Price(typ OptionType, S, X, T, r, b, v float64) (Quote, error) {
	if err := validateType(typ); err != nil {
		return Quote{}, err
	}
	if err := validate(S, X, T, r, b, v); err != nil {
		return Quote{}, err
	}

	if degenerate(T, v) {
		iv := Intrinsic(typ, S, X)
		return Quote{Price: iv, European: iv}, nil
	}

	euro := gbs(typ, S, X, T, r, b, v)
	quote := Quote{Price: euro, European: euro}

	if (typ == Call && b >= r) || (typ == Put && r <= 0) {
		return quote, nil
	}

	qd := newQuadratic(typ, X, T, r, b, v)
	if !qd.exercisable() {
		return quote, nil
	}
	crit := solveCriticalPrice(qd, a.tolerance, a.maxIterations)
	quote.Iterations = crit.Iterations
	quote.Method = crit.Method
	if !crit.Converged {
		quote.Degraded = true
		return quote, nil
	}

	sStar := crit.Value
	quote.CriticalPrice = sStar

	var price float64
	if (typ == Call && S >= sStar) || (typ == Put && S <= sStar) {
		price = Intrinsic(typ, S, X)
		quote.Exercised = true
	} else {
		price = euro + qd.premiumCoefficient(sStar)*math.Pow(S/sStar, qd.q)
	}

	// the approximation can undershoot either lower bound for puts with b > r
	quote.Price = max(price, euro, Intrinsic(typ, S, X))
	quote.Premium = quote.Price - euro
	return quote, nil
}
