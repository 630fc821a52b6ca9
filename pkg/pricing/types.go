// Package pricing implements closed-form and approximate valuation of plain
// vanilla options.
//
// Models:
//   - Black-Scholes (1973) for European options on non-dividend stock
//   - Generalized Black-Scholes with a cost-of-carry rate b
//   - Barone-Adesi & Whaley (1987) quadratic approximation for American options
//   - Bjerksund & Stensland (1993) flat-boundary approximation for American options
//
// Parameter naming follows the usual textbook convention:
//
//	S - spot price of the underlying
//	X - strike price
//	T - time to expiry in years (6 months == 0.5)
//	r - continuously compounded risk-free rate (10% == 0.10)
//	b - cost of carry (r for stock, r - q with dividend yield q, 0 for futures)
//	v - annualized volatility (30% == 0.30)
//
// Every function is a pure function of its arguments: there is no package state,
// so any number of goroutines may price concurrently.
package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// Typed errors allow callers and tests to detect failure categories
// without string matching.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownOptionType = errors.New("unknown option type")
)

// OptionType selects the payoff branch of every formula.
type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

func (o OptionType) String() string {
	switch o {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(o))
	}
}

// IsCall reports whether o is a call.
func (o OptionType) IsCall() bool { return o == Call }

// ParseOptionType accepts "call", "put", "c" or "p" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOptionType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (o OptionType) MarshalText() ([]byte, error) {
	if o != Call && o != Put {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOptionType, int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OptionType) UnmarshalText(text []byte) error {
	t, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*o = t
	return nil
}

// Params is the full argument tuple of a pricing call.
// Carry is only read by the generalized and American models; set it equal
// to Rate for a non-dividend-paying stock.
type Params struct {
	Type   OptionType `json:"type" yaml:"type" toml:"type"`
	Spot   float64    `json:"spot" yaml:"spot" toml:"spot"`
	Strike float64    `json:"strike" yaml:"strike" toml:"strike"`
	Expiry float64    `json:"expiry" yaml:"expiry" toml:"expiry"`
	Rate   float64    `json:"rate" yaml:"rate" toml:"rate"`
	Carry  float64    `json:"carry" yaml:"carry" toml:"carry"`
	Vol    float64    `json:"vol" yaml:"vol" toml:"vol"`
}

// Validate applies the same checks as the pricing functions.
func (p Params) Validate() error {
	if err := validateType(p.Type); err != nil {
		return err
	}
	return validate(p.Spot, p.Strike, p.Expiry, p.Rate, p.Carry, p.Vol)
}

// Intrinsic returns the payoff if exercised immediately.
func Intrinsic(typ OptionType, S, X float64) float64 {
	if typ == Put {
		return max(X-S, 0)
	}
	return max(S-X, 0)
}
