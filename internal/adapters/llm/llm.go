// Package llm wraps the Gemini API behind the narrow Completer
// interface the narrative drafter consumes. The client is constructed
// once at process start and injected; nothing in this package holds
// global state.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Completer is the one capability the rest of the engine needs from a
// language model: structured prompt in, raw reply text out.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Gemini is a Completer backed by the Google Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	timeout     time.Duration
	maxRetries  int
	temperature float32
	log         logger.Logger
}

// NewGemini builds a Gemini completer. The API key is required; model,
// timeout and retry bounds come from options with working defaults.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	g := &Gemini{
		model:       "gemini-2.5-flash",
		timeout:     30 * time.Second,
		maxRetries:  3,
		temperature: 0.4,
		log:         logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client

	return g, nil
}

// Complete sends the prompts to Gemini and returns the reply text.
// Rate-limited calls are retried with exponential backoff up to the
// configured bound; timeouts and service failures surface as typed
// errors so the caller can decide what to tell the reviewer.
func (g *Gemini) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordLLMRetry()
			select {
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			case <-ctx.Done():
				metrics.RecordLLMCall("timeout")
				return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), cfg)
		if err != nil {
			if ctx.Err() != nil {
				metrics.RecordLLMCall("timeout")
				return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
			if isRateLimited(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRateLimited, err)
				g.log.Warn(ctx, "rate limited, backing off",
					logger.Int("attempt", attempt+1),
					logger.String("model", g.model))
				continue
			}
			metrics.RecordLLMCall("error")
			return "", fmt.Errorf("%w: %v", ErrService, err)
		}

		text := resp.Text()
		if text == "" {
			metrics.RecordLLMCall("error")
			return "", fmt.Errorf("%w: empty completion", ErrService)
		}

		metrics.RecordLLMCall("success")
		metrics.RecordLLMLatency(float64(time.Since(start).Milliseconds()))
		return text, nil
	}

	metrics.RecordLLMCall("rate_limited")
	return "", fmt.Errorf("retries exhausted: %w", lastErr)
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	return false
}
