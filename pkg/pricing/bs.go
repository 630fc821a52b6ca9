package pricing

import (
	"math"
)

// EuropeanPrice calculates the price of a European option using the Black-Scholes model.
//
// Parameters:
//   - typ: Call or Put
//   - S: spot price of the underlying asset
//   - X: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - v: volatility of the underlying asset (annual, as a decimal)
//
// Returns:
//
//	The theoretical price of the option. If time to expiry or volatility is zero,
//	returns the intrinsic value of the option. Invalid inputs are reported with an
//	error wrapping ErrInvalidInput instead of producing NaN.
func EuropeanPrice(typ OptionType, S, X, T, r, v float64) (float64, error) {
	return GeneralizedPrice(typ, S, X, T, r, r, v)
}

// GeneralizedPrice is the generalized Black-Scholes formula with cost of carry b.
//
//	b = r      Black-Scholes (1973) stock option
//	b = r - q  Merton (1973) stock option with continuous dividend yield q
//	b = 0      Black (1976) futures option
//	b = r - rf Garman-Kohlhagen (1983) currency option
func GeneralizedPrice(typ OptionType, S, X, T, r, b, v float64) (float64, error) {
	if err := validateType(typ); err != nil {
		return 0, err
	}
	if err := validate(S, X, T, r, b, v); err != nil {
		return 0, err
	}
	return gbs(typ, S, X, T, r, b, v), nil
}

// gbs assumes validated inputs.
func gbs(typ OptionType, S, X, T, r, b, v float64) float64 {
	if degenerate(T, v) {
		return Intrinsic(typ, S, X)
	}

	vst := v * math.Sqrt(T)
	d1 := (math.Log(S/X) + (b+0.5*v*v)*T) / vst
	d2 := d1 - vst
	ebrt := math.Exp((b - r) * T)
	ert := math.Exp(-r * T)

	// deep out of the money the two terms cancel to a few ulps either side of zero
	if typ == Call {
		return max(S*ebrt*NormCDF(d1)-X*ert*NormCDF(d2), 0)
	}
	return max(X*ert*NormCDF(-d2)-S*ebrt*NormCDF(-d1), 0)
}
