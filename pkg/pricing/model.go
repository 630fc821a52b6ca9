package pricing

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownModel = errors.New("unknown pricing model")

// Model names a valuation method.
type Model string

const (
	ModelBlackScholes       Model = "black-scholes"
	ModelBaroneAdesiWhaley  Model = "barone-adesi-whaley"
	ModelBjerksundStensland Model = "bjerksund-stensland"
)

// ParseModel accepts the canonical names plus the short aliases "bs", "baw" and "bjs".
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black-scholes", "bs":
		return ModelBlackScholes, nil
	case "barone-adesi-whaley", "baw":
		return ModelBaroneAdesiWhaley, nil
	case "bjerksund-stensland", "bjs":
		return ModelBjerksundStensland, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// American reports whether m accounts for early exercise.
func (m Model) American() bool {
	return m == ModelBaroneAdesiWhaley || m == ModelBjerksundStensland
}
