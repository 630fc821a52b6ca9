package valuation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-pricer/pkg/config"
	"github.com/contactkeval/option-pricer/pkg/logger"
	"github.com/contactkeval/option-pricer/pkg/pricing"
)

// Revaluer prices positions with a fixed model configuration.
// It holds no mutable state and may be shared between goroutines.
type Revaluer struct {
	approx    *pricing.Approximator
	model     pricing.Model
	workers   int
	precision int32
	log       logger.Logger
}

// New validates cfg and builds a Revaluer. A nil log discards output.
func New(cfg *config.Config, log logger.Logger) (*Revaluer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	approx, err := cfg.Approximator()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Revaluer{
		approx:    approx,
		model:     cfg.AmericanModel(),
		workers:   cfg.Batch.Workers,
		precision: int32(cfg.Batch.Precision),
		log:       log.With(logger.String("component", "valuation")),
	}, nil
}

// Revalue prices every position using up to the configured number of workers.
// The returned report does not depend on the worker count. The only error is
// the context's, when it is cancelled before all positions are priced.
func (r *Revaluer) Revalue(ctx context.Context, positions []Position) (*Report, error) {
	start := time.Now()
	runID := uuid.New()
	log := r.log.With(logger.String("run_id", runID.String()))

	log.Info("revaluation started",
		logger.Int("positions", len(positions)),
		logger.Int("workers", r.workers),
		logger.String("american_model", string(r.model)),
	)

	out := make([]Valuation, len(positions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range positions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.value(log, positions[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("revaluation cancelled", logger.Err(err))
		return nil, fmt.Errorf("valuation: run %s: %w", runID, err)
	}
	if err := ctx.Err(); err != nil {
		log.Error("revaluation cancelled", logger.Err(err))
		return nil, fmt.Errorf("valuation: run %s: %w", runID, err)
	}

	report := &Report{
		RunID:      runID,
		Valuations: out,
		Total:      decimal.Zero,
	}
	for _, v := range out {
		switch {
		case v.Err != nil:
			report.Failed++
			continue
		case v.Degraded:
			report.Degraded++
		}
		report.Succeeded++
		report.Total = report.Total.Add(v.MarketValue)
	}
	report.Elapsed = time.Since(start)

	log.Info("revaluation finished",
		logger.Int("succeeded", report.Succeeded),
		logger.Int("failed", report.Failed),
		logger.Int("degraded", report.Degraded),
		logger.String("total", report.Total.String()),
		logger.Any("elapsed", report.Elapsed),
	)
	return report, nil
}

// Value prices a single position.
func (r *Revaluer) Value(p Position) Valuation {
	return r.value(r.log, p)
}

func (r *Revaluer) value(log logger.Logger, p Position) Valuation {
	v := Valuation{PositionID: p.ID, Style: p.Style}

	unit, err := r.unitPrice(p, &v)
	if err == nil {
		v.MarketValue, err = marketValue(unit, p.Quantity, r.precision)
	}
	if err != nil {
		log.Error("position rejected",
			logger.String("position", p.ID),
			logger.String("style", string(p.Style)),
			logger.Err(err),
		)
		return Valuation{PositionID: p.ID, Style: p.Style, Model: v.Model, MarketValue: decimal.Zero, Err: err}
	}
	v.UnitPrice = unit

	if v.Degraded {
		log.Warn("boundary search did not converge, using european value",
			logger.String("position", p.ID),
			logger.Int("iterations", v.Quote.Iterations),
			logger.String("method", string(v.Quote.Method)),
		)
	}
	log.Trace("position priced",
		logger.String("position", p.ID),
		logger.String("model", string(v.Model)),
		logger.Float64("unit_price", unit),
		logger.String("market_value", v.MarketValue.String()),
	)
	return v
}

func (r *Revaluer) unitPrice(p Position, v *Valuation) (float64, error) {
	prm := p.Params

	switch p.Style {
	case European:
		v.Model = pricing.ModelBlackScholes
		return pricing.GeneralizedPrice(prm.Type, prm.Spot, prm.Strike, prm.Expiry, prm.Rate, prm.Carry, prm.Vol)

	case American:
		v.Model = r.model
		if r.model == pricing.ModelBjerksundStensland {
			return pricing.BjerksundStenslandPrice(prm.Type, prm.Spot, prm.Strike, prm.Expiry, prm.Rate, prm.Carry, prm.Vol)
		}
		q, err := r.approx.Price(prm.Type, prm.Spot, prm.Strike, prm.Expiry, prm.Rate, prm.Carry, prm.Vol)
		if err != nil {
			return 0, err
		}
		v.Quote = &q
		v.Degraded = q.Degraded
		return q.Price, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownStyle, p.Style)
}

// marketValue is unit × quantity rounded to precision decimal places.
// decimal cannot represent NaN or ±Inf, so those are rejected.
func marketValue(unit float64, quantity decimal.Decimal, precision int32) (decimal.Decimal, error) {
	if math.IsNaN(unit) || math.IsInf(unit, 0) {
		return decimal.Zero, fmt.Errorf("%w: non-finite unit price %v", pricing.ErrInvalidInput, unit)
	}
	return decimal.NewFromFloat(unit).Mul(quantity).Round(precision), nil
}
