package config

import (
	"errors"
	"fmt"

	"github.com/contactkeval/option-pricer/pkg/logger"
	"github.com/contactkeval/option-pricer/pkg/pricing"
)

const (
	maxTolerance     = 1e-2
	maxIterationsCap = 10000
	maxPrecision     = 16
)

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err))
	}

	if tol := c.Solver.Tolerance; !(tol > 0 && tol <= maxTolerance) {
		errs = append(errs, fmt.Errorf("%w: solver.tolerance must be in (0, %g], got %v", ErrInvalidConfig, maxTolerance, tol))
	}
	if n := c.Solver.MaxIterations; n < 1 || n > maxIterationsCap {
		errs = append(errs, fmt.Errorf("%w: solver.max_iterations must be in [1, %d], got %d", ErrInvalidConfig, maxIterationsCap, n))
	}

	if m, err := pricing.ParseModel(c.Pricing.AmericanModel); err != nil {
		errs = append(errs, fmt.Errorf("%w: pricing.american_model: %w", ErrInvalidConfig, err))
	} else if !m.American() {
		errs = append(errs, fmt.Errorf("%w: pricing.american_model %q does not price early exercise", ErrInvalidConfig, m))
	}

	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: batch.workers must be >= 1, got %d", ErrInvalidConfig, c.Batch.Workers))
	}
	if p := c.Batch.Precision; p < 0 || p > maxPrecision {
		errs = append(errs, fmt.Errorf("%w: batch.precision must be in [0, %d], got %d", ErrInvalidConfig, maxPrecision, p))
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level; call Validate first.
func (c *Config) LogLevel() logger.Level {
	l, _ := logger.ParseLevel(c.Log.Level)
	return l
}

// AmericanModel returns the parsed American model, defaulting to Barone-Adesi & Whaley.
func (c *Config) AmericanModel() pricing.Model {
	m, err := pricing.ParseModel(c.Pricing.AmericanModel)
	if err != nil || !m.American() {
		return pricing.ModelBaroneAdesiWhaley
	}
	return m
}

// Approximator builds the American solver from the solver section.
func (c *Config) Approximator() (*pricing.Approximator, error) {
	a, err := pricing.NewApproximator(
		pricing.WithTolerance(c.Solver.Tolerance),
		pricing.WithMaxIterations(c.Solver.MaxIterations),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return a, nil
}

// Logger builds a logger for the app environment at the configured level.
func (c *Config) Logger() (logger.Logger, error) {
	return logger.New(c.App.Env, c.LogLevel())
}
