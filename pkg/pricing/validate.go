package pricing

import (
	"fmt"
	"math"
)

func validateType(typ OptionType) error {
	if typ != Call && typ != Put {
		return fmt.Errorf("%w: %w: %d", ErrInvalidInput, ErrUnknownOptionType, int(typ))
	}
	return nil
}

// validate rejects arguments that would make any formula produce NaN or Inf.
// T == 0 and v == 0 are legal; they collapse to intrinsic value.
func validate(S, X, T, r, b, v float64) error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"spot", S}, {"strike", X}, {"expiry", T}, {"rate", r}, {"carry", b}, {"volatility", v},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidInput, f.name, f.value)
		}
	}

	switch {
	case S <= 0:
		return fmt.Errorf("%w: spot must be > 0, got %v", ErrInvalidInput, S)
	case X <= 0:
		return fmt.Errorf("%w: strike must be > 0, got %v", ErrInvalidInput, X)
	case T < 0:
		return fmt.Errorf("%w: expiry must be >= 0, got %v", ErrInvalidInput, T)
	case v < 0:
		return fmt.Errorf("%w: volatility must be >= 0, got %v", ErrInvalidInput, v)
	}
	return nil
}

func degenerate(T, v float64) bool {
	return T == 0 || v == 0
}
