package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VIGIL_CONFIG is set
//  3. env (prefix VIGIL_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("VIGIL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VIGIL_ADDR, VIGIL_QUEUE_SIZE, VIGIL_LLM_API_KEY, ...
	// Map env keys like VIGIL_QUEUE_SIZE -> queue_size (flat keys).
	// A double underscore separates nested keys: VIGIL_LLM__API_KEY -> llm.api_key.
	envProvider := env.Provider("VIGIL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vigil_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DraftQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.LookbackWeeks < 1:
		return fmt.Errorf("%w: lookback_weeks must be positive", ErrInvalidConfig)
	case c.Store != "memory" && c.Store != "sqlite":
		return fmt.Errorf("%w: store must be memory or sqlite", ErrInvalidConfig)
	}

	prev := 0.0
	for _, tier := range []string{"monitor", "at_risk", "critical"} {
		t, ok := c.TierThresholds[tier]
		if !ok {
			return fmt.Errorf("%w: missing tier threshold %q", ErrInvalidConfig, tier)
		}
		if t <= prev || t > 1 {
			return fmt.Errorf("%w: tier thresholds must ascend within (0,1]", ErrInvalidConfig)
		}
		prev = t
	}

	for name, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("%w: weight %q must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
