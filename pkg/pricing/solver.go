package pricing

import (
	"math"
)

// SolveMethod names the root-finding scheme that produced a critical price.
type SolveMethod string

const (
	MethodNone      SolveMethod = ""
	MethodNewton    SolveMethod = "newton"
	MethodBisection SolveMethod = "bisection"
)

// CriticalPrice is the outcome of the early-exercise boundary search.
// When Converged is false, Value is meaningless and must not be used.
type CriticalPrice struct {
	Value      float64
	Iterations int
	Method     SolveMethod
	Converged  bool
}

// quadratic holds the constants of the Barone-Adesi & Whaley PDE approximation
// for one (X, T, r, b, v) tuple.
type quadratic struct {
	typ     OptionType
	x, t    float64
	r, b, v float64

	vst  float64 // v * sqrt(T)
	ebrt float64 // e^((b-r)T)
	n    float64 // N = 2b / v^2
	m    float64 // M = 2r / v^2
	mk   float64 // M / K with K = 1 - e^(-rT)
	q    float64 // exponent of the early exercise premium
}

func newQuadratic(typ OptionType, X, T, r, b, v float64) quadratic {
	vv := v * v
	qd := quadratic{
		typ: typ, x: X, t: T, r: r, b: b, v: v,
		vst:  v * math.Sqrt(T),
		ebrt: math.Exp((b - r) * T),
		n:    2 * b / vv,
		m:    2 * r / vv,
	}
	if r == 0 {
		// limit of 2r / (v^2 (1 - e^(-rT))) as r -> 0
		qd.mk = 2 / (vv * T)
	} else {
		qd.mk = qd.m / -math.Expm1(-r*T)
	}
	qd.q = qd.root(qd.mk)
	return qd
}

// root solves q^2 + (N-1)q - c = 0, taking the positive root for calls and
// the negative root for puts.
func (qd quadratic) root(c float64) float64 {
	disc := math.Sqrt((qd.n-1)*(qd.n-1) + 4*c)
	if qd.typ == Call {
		return (-(qd.n - 1) + disc) / 2
	}
	return (-(qd.n - 1) - disc) / 2
}

func (qd quadratic) d1(s float64) float64 {
	return (math.Log(s/qd.x) + (qd.b+0.5*qd.v*qd.v)*qd.t) / qd.vst
}

// premiumCoefficient is A in the early exercise premium A·(S/S*)^q for boundary s.
func (qd quadratic) premiumCoefficient(s float64) float64 {
	d1 := qd.d1(s)
	if qd.typ == Call {
		return (s / qd.q) * (1 - qd.ebrt*NormCDF(d1))
	}
	return -(s / qd.q) * (1 - qd.ebrt*NormCDF(-d1))
}

// residual is the matching condition intrinsic(s) - (European(s) + A(s)) and its
// derivative with respect to s.
func (qd quadratic) residual(s float64) (f, df float64) {
	d1 := qd.d1(s)
	euro := gbs(qd.typ, s, qd.x, qd.t, qd.r, qd.b, qd.v)

	if qd.typ == Call {
		nd1 := NormCDF(d1)
		rhs := euro + (1-qd.ebrt*nd1)*s/qd.q
		slope := qd.ebrt*nd1*(1-1/qd.q) + (1-qd.ebrt*NormPDF(d1)/qd.vst)/qd.q
		return s - qd.x - rhs, 1 - slope
	}

	nd1 := NormCDF(-d1)
	rhs := euro - (1-qd.ebrt*nd1)*s/qd.q
	slope := -qd.ebrt*nd1*(1-1/qd.q) - (1+qd.ebrt*NormPDF(-d1)/qd.vst)/qd.q
	return qd.x - s - rhs, -1 - slope
}

// admissible reports whether s lies on the exercise side of the strike.
func (qd quadratic) admissible(s float64) bool {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return false
	}
	if qd.typ == Call {
		return s > qd.x
	}
	return s > 0 && s < qd.x
}

// perpetual is the exercise boundary of the infinite-maturity option. It is
// +Inf for calls and 0 for puts when the rate is too small to ever make early
// exercise worthwhile.
func (qd quadratic) perpetual() float64 {
	qInf := qd.root(qd.m)
	if qInf == 0 {
		return 0
	}
	return qd.x / (1 - 1/qInf)
}

// exercisable reports whether the perpetual boundary lies where the search
// can bracket it. Otherwise the early exercise premium vanishes at float64
// precision.
func (qd quadratic) exercisable() bool {
	sInf := qd.perpetual()
	if !qd.admissible(sInf) {
		return false
	}
	return qd.typ == Call || sInf > qd.x*putFloor
}

// seed is the Barone-Adesi & Whaley starting guess, interpolating between the
// strike and the perpetual option's boundary.
func (qd quadratic) seed() float64 {
	sInf := qd.perpetual()
	if qd.typ == Call {
		h := -(qd.b*qd.t + 2*qd.vst) * qd.x / (sInf - qd.x)
		return qd.x + (sInf-qd.x)*(1-math.Exp(h))
	}
	h := (qd.b*qd.t - 2*qd.vst) * qd.x / (qd.x - sInf)
	return sInf + (qd.x-sInf)*math.Exp(h)
}

// solveCriticalPrice runs Newton-Raphson on the matching condition and falls
// back to bisection when an iterate leaves the admissible region or the cap
// is reached. Both phases are capped at maxIter steps.
func solveCriticalPrice(qd quadratic, tol float64, maxIter int) CriticalPrice {
	s := qd.seed()
	used := 0

	if qd.admissible(s) {
		for used < maxIter {
			used++
			f, df := qd.residual(s)
			next := s - f/df
			if !qd.admissible(next) {
				break
			}
			if math.Abs(next-s)/next < tol {
				return CriticalPrice{Value: next, Iterations: used, Method: MethodNewton, Converged: true}
			}
			s = next
		}
	}

	res := bisect(qd, tol, maxIter)
	res.Iterations += used
	return res
}

// putFloor is the lower end of the put bracket as a fraction of the strike.
const putFloor = 1e-9

func bisect(qd quadratic, tol float64, maxIter int) CriticalPrice {
	const maxExpansions = 64

	var lo, hi float64
	if qd.typ == Call {
		// residual < 0 at the strike and turns non-negative far above it;
		// at low volatility it rounds to exactly zero past the boundary
		lo, hi = qd.x, 2*qd.x
		for i := 0; ; i++ {
			if f, _ := qd.residual(hi); f >= 0 {
				break
			}
			if i == maxExpansions {
				return CriticalPrice{Method: MethodBisection}
			}
			hi *= 2
		}
	} else {
		// residual > 0 near zero, < 0 at the strike
		lo, hi = qd.x*putFloor, qd.x
		fLo, _ := qd.residual(lo)
		fHi, _ := qd.residual(hi)
		if !(fLo > 0 && fHi < 0) {
			return CriticalPrice{Method: MethodBisection}
		}
	}

	for i := 1; i <= maxIter; i++ {
		mid := 0.5 * (lo + hi)
		f, _ := qd.residual(mid)
		if math.IsNaN(f) {
			return CriticalPrice{Iterations: i, Method: MethodBisection}
		}
		// the residual increases through the root for calls and decreases for puts
		above := f >= 0
		if qd.typ == Put {
			above = f <= 0
		}
		if above {
			hi = mid
		} else {
			lo = mid
		}
		if (hi-lo)/mid < tol {
			return CriticalPrice{Value: 0.5 * (lo + hi), Iterations: i, Method: MethodBisection, Converged: true}
		}
	}
	return CriticalPrice{Iterations: maxIter, Method: MethodBisection}
}
