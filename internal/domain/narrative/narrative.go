// Package narrative turns a structured escalation decision into a
// prompt for the language model collaborator and validates its reply.
// It never fabricates a message: a reply that fails validation after
// the retry bound surfaces as a fatal error carrying the raw text.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/vigil/internal/adapters/llm"
	"github.com/okian/vigil/internal/domain/signal"
	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// PreviousWarning summarizes an earlier warning for inclusion in the
// drafting context of a final.
type PreviousWarning struct {
	Level        warning.Level
	Requirements []string
	IssuedAt     time.Time
	Acknowledged bool
}

// Request carries everything the model needs to draft one warning.
type Request struct {
	FellowID          string
	FellowName        string
	Role              string
	Week              int
	Level             warning.Level
	Tier              tier.Tier
	Score             float64
	Concerns          []string
	PriorWarningCount int
	Signals           *signal.Snapshot
	Previous          *PreviousWarning
}

// Draft is the validated, normalized model reply.
type Draft struct {
	Message             string   `json:"message"`
	Tone                string   `json:"tone"`
	KeyPoints           []string `json:"key_points"`
	Requirements        []string `json:"requirements"`
	Timeline            string   `json:"timeline"`
	RecommendedFollowup string   `json:"recommended_followup,omitempty"`
	EscalationNote      string   `json:"escalation_note,omitempty"`
}

// Drafter drives the model through the drafting exchange.
type Drafter struct {
	completer     llm.Completer
	minMessageLen int
	parseRetries  int
	log           logger.Logger
}

// NewDrafter builds a drafter around an injected completer.
func NewDrafter(completer llm.Completer, opts ...DrafterOption) (*Drafter, error) {
	if completer == nil {
		return nil, errors.New("narrative: completer is required")
	}
	d := &Drafter{
		completer:     completer,
		minMessageLen: 200,
		parseRetries:  2,
		log:           logger.Named("narrative"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DrafterOption configures a Drafter.
type DrafterOption func(*Drafter)

// WithMinMessageLen sets the minimum acceptable message length.
func WithMinMessageLen(n int) DrafterOption {
	return func(d *Drafter) {
		if n > 0 {
			d.minMessageLen = n
		}
	}
}

// WithParseRetries bounds re-asks after a malformed reply.
func WithParseRetries(n int) DrafterOption {
	return func(d *Drafter) {
		if n >= 0 {
			d.parseRetries = n
		}
	}
}

// WithDrafterLogger injects a logger.
func WithDrafterLogger(l logger.Logger) DrafterOption {
	return func(d *Drafter) {
		if l != nil {
			d.log = l
		}
	}
}

// Draft asks the model for a warning message and validates the reply.
// Malformed replies are re-requested up to the retry bound, then the
// last ParseError surfaces with the raw reply attached. A timed-out
// call is abandoned entirely and reported as ErrDraftTimeout.
func (d *Drafter) Draft(ctx context.Context, req Request) (Draft, error) {
	if len(req.Concerns) == 0 {
		return Draft{}, ErrEmptyConcerns
	}

	sys := systemPrompt(req.Level)
	user := buildUserPrompt(req)

	var lastParseErr *ParseError
	for attempt := 0; attempt <= d.parseRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordDraftParseRetry()
			d.log.Warn(ctx, "malformed draft reply, retrying",
				logger.String("fellow_id", req.FellowID),
				logger.Int("attempt", attempt),
				logger.String("reason", lastParseErr.Reason))
		}

		raw, err := d.completer.Complete(ctx, sys, user)
		if err != nil {
			switch {
			case errors.Is(err, llm.ErrTimeout):
				metrics.RecordDraftFailure("timeout")
				return Draft{}, fmt.Errorf("%w: %v", ErrDraftTimeout, err)
			default:
				metrics.RecordDraftFailure("llm")
				return Draft{}, fmt.Errorf("draft completion: %w", err)
			}
		}

		draft, err := Parse(raw, d.minMessageLen)
		if err == nil {
			return draft, nil
		}
		if !errors.As(err, &lastParseErr) {
			metrics.RecordDraftFailure("parse")
			return Draft{}, err
		}
	}

	metrics.RecordDraftFailure("parse")
	return Draft{}, lastParseErr
}
