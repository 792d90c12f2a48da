package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/vigil/internal/seed"
)

// Default configuration constants.
const (
	defaultCohortSize = 24
	defaultSeed       = 42
	defaultWeek       = 6
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9180", "Base URL of the service")
		cohortSize = flag.Int("cohort", defaultCohortSize, "Number of fellows (must match the service's cohort.size)")
		seedValue  = flag.Int64("seed", defaultSeed, "Cohort seed (must match the service's cohort.seed)")
		week       = flag.Int("week", defaultWeek, "Evaluation week")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		CohortSize: *cohortSize,
		Seed:       *seedValue,
		Week:       *week,
		Timeout:    *timeout,
	}

	if err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
