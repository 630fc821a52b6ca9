// Package valuation revalues a book of option positions concurrently.
//
// Each position is priced with the European or the configured American model,
// its market value is quantity × unit price rounded to the configured number of
// decimal places, and the run is summarised in a Report. Pricing failures are
// recorded per position; they never abort the rest of the batch.
package valuation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-pricer/pkg/pricing"
)

var ErrUnknownStyle = errors.New("unknown exercise style")

// Style is the exercise style of a position.
type Style string

const (
	European Style = "european"
	American Style = "american"
)

// ParseStyle accepts "european"/"eu" and "american"/"us" in any case.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "european", "eu":
		return European, nil
	case "american", "us":
		return American, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
}

// Position is a holding of Quantity identical options. Negative quantities are short.
type Position struct {
	ID       string          `json:"id" yaml:"id"`
	Style    Style           `json:"style" yaml:"style"`
	Params   pricing.Params  `json:"params" yaml:"params"`
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`
}

// Valuation is the outcome for one position. When Err is set every other
// numeric field is zero.
type Valuation struct {
	PositionID  string          `json:"position_id"`
	Style       Style           `json:"style"`
	Model       pricing.Model   `json:"model,omitempty"`
	UnitPrice   float64         `json:"unit_price"`
	MarketValue decimal.Decimal `json:"market_value"`

	// Quote carries the solver details for Barone-Adesi & Whaley valuations.
	Quote *pricing.Quote `json:"quote,omitempty"`

	// Degraded is set when the American boundary search did not converge and
	// UnitPrice is the European fallback.
	Degraded bool  `json:"degraded,omitempty"`
	Err      error `json:"-"`
}

// Report summarises one revaluation run. Valuations are in input order.
type Report struct {
	RunID      uuid.UUID       `json:"run_id"`
	Valuations []Valuation     `json:"valuations"`
	Total      decimal.Decimal `json:"total"` // sum of successful market values
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Degraded   int             `json:"degraded"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// Errors returns the failed valuations.
func (r *Report) Errors() []Valuation {
	var failed []Valuation
	for _, v := range r.Valuations {
		if v.Err != nil {
			failed = append(failed, v)
		}
	}
	return failed
}
