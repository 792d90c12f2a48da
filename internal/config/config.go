// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DraftQueueSize bounds the in-memory draft-job queue.
	DraftQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of draft workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the evaluation idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// LookbackWeeks sets the trailing check-in window for signal collection.
	LookbackWeeks int `koanf:"lookback_weeks"`

	// AssessIntervalMS enables the periodic cohort assessor when > 0.
	AssessIntervalMS int `koanf:"assess_interval_ms"`

	// Weights maps signal names to their scoring weights.
	Weights map[string]float64 `koanf:"weights"`

	// TrendAmplifier scales scores for fellows whose risk is rising.
	TrendAmplifier float64 `koanf:"trend_amplifier"`

	// TierThresholds maps tier names to the lower bound of their score band.
	TierThresholds map[string]float64 `koanf:"tier_thresholds"`

	// ConcernCutoffs maps signal names to the contribution level that
	// surfaces a human-readable concern.
	ConcernCutoffs map[string]float64 `koanf:"concern_cutoffs"`

	// DraftMinMessageLen rejects LLM drafts with shorter messages.
	DraftMinMessageLen int `koanf:"draft_min_message_len"`

	// DraftParseRetries bounds re-requests after malformed LLM replies.
	DraftParseRetries int `koanf:"draft_parse_retries"`

	// LLM configures the hosted model collaborator.
	LLM LLMConfig `koanf:"llm"`

	// Store selects warning/assessment persistence: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath locates the sqlite database file when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// Cohort configures the synthetic fellowship cohort that backs the
	// check-in and milestone stores until the platform integration lands.
	Cohort CohortConfig `koanf:"cohort"`
}

// CohortConfig holds the synthetic cohort settings.
type CohortConfig struct {
	// Size is the number of generated fellows.
	Size int `koanf:"size"`

	// Seed makes generation reproducible across processes.
	Seed int64 `koanf:"seed"`

	// Week is the current program week.
	Week int `koanf:"week"`
}

// LLMConfig holds the hosted LLM collaborator settings.
type LLMConfig struct {
	Model      string `koanf:"model"`
	APIKey     string `koanf:"api_key"`
	TimeoutMS  int    `koanf:"timeout_ms"`
	MaxRetries int    `koanf:"max_retries"`
}

// New creates a Config populated with defaults. Weights, thresholds, and
// cutoffs follow the program's standing policy; all are tunable via file
// or environment without touching business logic.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9180",
		DraftQueueSize:   1_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       100_000,
		LookbackWeeks:    3,
		AssessIntervalMS: 0,
		Weights: map[string]float64{
			"check_in_frequency": 0.15,
			"check_in_risk":      0.25,
			"sentiment":          0.15,
			"energy":             0.10,
			"milestones":         0.20,
			"collaboration":      0.05,
			"below_expectations": 0.05,
			"prior_warnings":     0.05,
		},
		TrendAmplifier: 1.2,
		TierThresholds: map[string]float64{
			"monitor":  0.25,
			"at_risk":  0.50,
			"critical": 0.75,
		},
		ConcernCutoffs: map[string]float64{
			"check_in_frequency": 0.67,
			"sentiment":          -0.3,
			"energy":             4.0,
			"collaboration":      0.3,
			"milestones":         2.5,
		},
		DraftMinMessageLen: 200,
		DraftParseRetries:  2,
		LLM: LLMConfig{
			Model:      "gemini-2.5-flash",
			TimeoutMS:  30_000,
			MaxRetries: 3,
		},
		Store:      "memory",
		SQLitePath: "vigil.db",
		Cohort: CohortConfig{
			Size: 24,
			Seed: 42,
			Week: 6,
		},
	}
}
