package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables recognised by applyEnv.
const (
	EnvAppName             = "APP_NAME"
	EnvAppEnv              = "APP_ENV"
	EnvLogLevel            = "OPTPRICE_LOG_LEVEL"
	EnvSolverTolerance     = "OPTPRICE_SOLVER_TOLERANCE"
	EnvSolverMaxIterations = "OPTPRICE_SOLVER_MAX_ITERATIONS"
	EnvAmericanModel       = "OPTPRICE_AMERICAN_MODEL"
	EnvBatchWorkers        = "OPTPRICE_BATCH_WORKERS"
	EnvBatchPrecision      = "OPTPRICE_BATCH_PRECISION"
)

// applyEnv overrides cfg with every variable that is set and non-empty.
func applyEnv(cfg *Config) error {
	setString(&cfg.App.Name, EnvAppName)
	setString(&cfg.App.Env, EnvAppEnv)
	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.Pricing.AmericanModel, EnvAmericanModel)

	if err := setFloat(&cfg.Solver.Tolerance, EnvSolverTolerance); err != nil {
		return err
	}
	if err := setInt(&cfg.Solver.MaxIterations, EnvSolverMaxIterations); err != nil {
		return err
	}
	if err := setInt(&cfg.Batch.Workers, EnvBatchWorkers); err != nil {
		return err
	}
	return setInt(&cfg.Batch.Precision, EnvBatchPrecision)
}

/* ================= helpers ================= */

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
	}
	*dst = f
	return nil
}
