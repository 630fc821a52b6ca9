package pricing

import (
	"math"
)

// BjerksundStenslandPrice approximates an American option with the Bjerksund &
// Stensland (1993) flat exercise boundary. It is a closed form, so there is no
// iteration and no convergence to report; it is slightly below Barone-Adesi &
// Whaley for the same inputs. The result is floored at both the European and
// the intrinsic value.
//
// Puts are priced through the put-call transformation P(S, X, T, r, b, v) = C(X, S, T, r-b, -b, v).
func BjerksundStenslandPrice(typ OptionType, S, X, T, r, b, v float64) (float64, error) {
	if err := validateType(typ); err != nil {
		return 0, err
	}
	if err := validate(S, X, T, r, b, v); err != nil {
		return 0, err
	}
	if degenerate(T, v) {
		return Intrinsic(typ, S, X), nil
	}
	if typ == Call {
		return bjsCall(S, X, T, r, b, v), nil
	}
	return bjsCall(X, S, T, r-b, -b, v), nil
}

func bjsCall(S, X, T, r, b, v float64) float64 {
	euro := gbs(Call, S, X, T, r, b, v)
	if b >= r {
		// never optimal to exercise before maturity
		return euro
	}

	vv := v * v
	beta := (0.5 - b/vv) + math.Sqrt((b/vv-0.5)*(b/vv-0.5)+2*r/vv)
	bInf := beta / (beta - 1) * X
	b0 := max(X, r/(r-b)*X)
	ht := -(b*T + 2*v*math.Sqrt(T)) * b0 / (bInf - b0)
	trigger := b0 + (bInf-b0)*(1-math.Exp(ht))

	// ht overflows to a -Inf trigger when bInf is within rounding of b0
	if math.IsNaN(trigger) || S >= trigger {
		return max(S-X, euro)
	}

	price := bjsPhi(0, S, T, 1, trigger, trigger, r, b, v) -
		bjsPhi(0, S, T, 1, X, trigger, r, b, v) -
		X*bjsPhi(0, S, T, 0, trigger, trigger, r, b, v) +
		X*bjsPhi(0, S, T, 0, X, trigger, r, b, v)

	// alpha·S^beta = (I-X)·(S/I)^beta, taken in log space with the matching
	// phi term since S^beta and (I/S)^kappa overflow at low volatility
	if trigger != X {
		logAlpha := math.Log(math.Abs(trigger-X)) - beta*math.Log(trigger)
		price += math.Copysign(1, trigger-X) *
			(math.Exp(logAlpha+beta*math.Log(S)) - bjsPhi(logAlpha, S, T, beta, trigger, trigger, r, b, v))
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		price = 0
	}

	// the flat boundary is a lower bound of the optimal one; it can dip
	// below the European value and, near the money, below intrinsic
	return max(price, euro, S-X)
}

// bjsPhi is e^logScale · phi(S, T, gamma, h, I).
func bjsPhi(logScale, S, T, gamma, h, trigger, r, b, v float64) float64 {
	vst := v * math.Sqrt(T)
	vv := v * v

	lambda := (-r + gamma*b + 0.5*gamma*(gamma-1)*vv) * T
	d := -(math.Log(S/h) + (b+(gamma-0.5)*vv)*T) / vst
	kappa := 2*b/vv + (2*gamma - 1)

	base := logScale + lambda + gamma*math.Log(S)
	lr := math.Log(trigger / S)
	return scaledCDF(base, d) - scaledCDF(base+kappa*lr, d-2*lr/vst)
}

// scaledCDF returns e^logScale · N(x), or 0 once N(x) underflows.
func scaledCDF(logScale, x float64) float64 {
	p := NormCDF(x)
	if p == 0 {
		return 0
	}
	return math.Exp(logScale + math.Log(p))
}
