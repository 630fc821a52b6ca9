package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const sqrt2Pi = 2.5066282746310002

// NormPDF calculates the probability density function (PDF) of the standard normal distribution.
// The formula used is: exp(-0.5 * x^2) / sqrt(2π)
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// NormCDF computes the cumulative distribution function of the standard normal distribution.
//
// The upper half is evaluated with gonum's erfc-based unit normal, which is accurate to
// double precision. Negative arguments are mirrored, so NormCDF(-x) == 1 - NormCDF(x)
// holds bit for bit for every x >= 0 and put/call formulas stay symmetric.
func NormCDF(x float64) float64 {
	if x < 0 {
		return 1 - NormCDF(-x)
	}
	return distuv.UnitNormal.CDF(x)
}

// Zelen & Severo (Abramowitz-Stegun 26.2.17) coefficients.
const (
	zsP  = 0.2316419
	zsA1 = 0.31938153
	zsA2 = -0.356563782
	zsA3 = 1.781477937
	zsA4 = -1.821255978
	zsA5 = 1.330274429
)

// ZelenSeveroCDF is the five-term polynomial approximation of the normal CDF found in many
// legacy pricing libraries. Its absolute error is about 7.5e-8, so the pricers use NormCDF;
// this one is kept to reproduce numbers produced by those libraries.
func ZelenSeveroCDF(x float64) float64 {
	l := math.Abs(x)
	k := 1.0 / (1.0 + zsP*l)
	poly := k * (zsA1 + k*(zsA2+k*(zsA3+k*(zsA4+k*zsA5))))
	upper := 1.0 - NormPDF(l)*poly
	if x < 0 {
		return 1.0 - upper
	}
	return upper
}
