// Package config loads the pricing engine settings from TOML or YAML files,
// a .env file and environment variables, in that order of precedence (lowest first).
//
// A full TOML file looks like:
//
//	[app]
//	name = "option-pricer"
//	env  = "production"
//
//	[log]
//	level = "info"            # error | info | debug | trace
//
//	[solver]
//	tolerance      = 1e-6
//	max_iterations = 50
//
//	[pricing]
//	american_model = "barone-adesi-whaley"   # or "bjerksund-stensland"
//
//	[batch]
//	workers   = 8
//	precision = 6
//
// YAML files use the same keys.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/option-pricer/pkg/logger"
	"github.com/contactkeval/option-pricer/pkg/pricing"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// EnvConfigPath names the variable LoadFromEnv reads the config file path from.
const EnvConfigPath = "OPTPRICE_CONFIG"

type Config struct {
	App     AppConfig     `toml:"app" yaml:"app"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Solver  SolverConfig  `toml:"solver" yaml:"solver"`
	Pricing PricingConfig `toml:"pricing" yaml:"pricing"`
	Batch   BatchConfig   `toml:"batch" yaml:"batch"`
}

type AppConfig struct {
	Name string `toml:"name" yaml:"name"`
	Env  string `toml:"env" yaml:"env"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

type SolverConfig struct {
	Tolerance     float64 `toml:"tolerance" yaml:"tolerance"`
	MaxIterations int     `toml:"max_iterations" yaml:"max_iterations"`
}

type PricingConfig struct {
	AmericanModel string `toml:"american_model" yaml:"american_model"`
}

type BatchConfig struct {
	Workers   int `toml:"workers" yaml:"workers"`
	Precision int `toml:"precision" yaml:"precision"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name: "option-pricer",
			Env:  "local",
		},
		Log: LogConfig{
			Level: logger.Info.String(),
		},
		Solver: SolverConfig{
			Tolerance:     pricing.DefaultTolerance,
			MaxIterations: pricing.DefaultMaxIterations,
		},
		Pricing: PricingConfig{
			AmericanModel: string(pricing.ModelBaroneAdesiWhaley),
		},
		Batch: BatchConfig{
			Workers:   runtime.GOMAXPROCS(0),
			Precision: 6,
		},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. The format is chosen by extension: .yaml and .yml are
// YAML, anything else is TOML.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config: file path cannot be empty")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := decode(content, detectFormat(path), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads a .env file when present, then reads the file named by
// OPTPRICE_CONFIG, or starts from the defaults when it is unset.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}

	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type format int

const (
	formatTOML format = iota
	formatYAML
)

func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatTOML
	}
}

// decode overlays content on cfg; keys absent from content keep their value.
// Unknown keys are rejected so that typos do not silently fall back to defaults.
func decode(content []byte, f format, cfg *Config) error {
	switch f {
	case formatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("YAML parse error: %w", err)
		}
	default:
		md, err := toml.Decode(string(content), cfg)
		if err != nil {
			return fmt.Errorf("TOML parse error: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	}
	return nil
}
