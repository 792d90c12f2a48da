package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"
)

// Config holds the CLI settings for driving a running service.
type Config struct {
	BaseURL    string
	CohortSize int
	Seed       int64
	Week       int
	Timeout    time.Duration
}

type evaluationResult struct {
	FellowID          string   `json:"fellow_id"`
	Score             float64  `json:"score"`
	Tier              string   `json:"tier"`
	Concerns          []string `json:"concerns"`
	RecommendedAction string   `json:"recommended_action"`
}

// Run posts one evaluation per cohort fellow against a running service
// and prints the resulting tier summary. The service must be configured
// with the same cohort size and seed so the fellow IDs line up.
func Run(ctx context.Context, cfg *Config) error {
	client := &http.Client{Timeout: cfg.Timeout}
	tiers := map[string]int{}
	var failures int

	for i := 0; i < cfg.CohortSize; i++ {
		fellowID := FellowID(cfg.Seed, i)
		result, err := postEvaluation(ctx, client, cfg.BaseURL, fellowID, cfg.Week)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "evaluate %s: %v\n", fellowID, err)
			continue
		}
		tiers[result.Tier]++
		fmt.Printf("%-38s %-10s score=%.2f action=%s\n",
			result.FellowID, result.Tier, result.Score, result.RecommendedAction)
	}

	fmt.Println()
	fmt.Println("tier summary:")
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-10s %d\n", name, tiers[name])
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d evaluations failed", failures, cfg.CohortSize)
	}
	return nil
}

func postEvaluation(ctx context.Context, client *http.Client, baseURL, fellowID string, week int) (evaluationResult, error) {
	body, err := json.Marshal(map[string]any{"fellow_id": fellowID, "week": week})
	if err != nil {
		return evaluationResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/evaluations", bytes.NewReader(body))
	if err != nil {
		return evaluationResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return evaluationResult{}, fmt.Errorf("post evaluation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return evaluationResult{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	var result evaluationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return evaluationResult{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}
