package llm

import (
	"time"

	"github.com/okian/vigil/pkg/logger"
)

// Option configures the Gemini completer.
type Option func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gemini) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMaxRetries bounds the backoff loop on rate limits.
func WithMaxRetries(n int) Option {
	return func(g *Gemini) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Gemini) {
		g.temperature = t
	}
}

// WithLogger injects a logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gemini) {
		if l != nil {
			g.log = l
		}
	}
}
