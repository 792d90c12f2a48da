// Package escalation decides whether a fellow's current risk tier and
// warning history warrant drafting a new warning, and at which level.
// The decision is pure: it never mutates records or calls external
// services; the caller hands the decision to the narrative drafter.
package escalation

import (
	"fmt"

	"github.com/okian/vigil/internal/domain/signal"
	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
)

// Decision describes an escalation the policy has deemed warranted.
// Snapshot carries the evaluation's signal evidence for the drafting
// prompt; the policy itself never reads it.
type Decision struct {
	FellowID string
	Level    warning.Level
	Tier     tier.Tier
	Score    float64
	Concerns []string
	Snapshot *signal.Snapshot
}

// Policy applies the escalation ladder. The zero value is ready to use.
type Policy struct{}

// NewPolicy returns an escalation policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// Decide evaluates a fellow against the escalation ladder:
//
//   - tier below at_risk never drafts; existing warnings stay available
//     for issuance and acknowledgment but no new one is initiated
//   - no first warning ever issued: draft a first, unless one is
//     already active awaiting human action
//   - a first was issued and the fellow is still at_risk or critical,
//     whether or not the first was acknowledged: draft a final
//   - once a final exists in any state the ladder is exhausted; what
//     happens beyond a final is a human decision outside this engine
//
// When no draft is warranted the error wraps ErrNoActionNeeded so the
// caller can distinguish "nothing to do" from a real failure.
func (p *Policy) Decide(fellowID string, t tier.Tier, score float64, concerns []string, history []warning.Record) (Decision, error) {
	if t < tier.AtRisk {
		return Decision{}, fmt.Errorf("%w: tier %s", ErrNoActionNeeded, t)
	}

	var (
		issuedFirst  bool
		draftedFirst bool
		hasFinal     bool
	)
	for _, rec := range history {
		switch rec.Level {
		case warning.LevelFirst:
			switch rec.Status {
			case warning.StatusIssued, warning.StatusAcknowledged:
				issuedFirst = true
			case warning.StatusDrafted:
				draftedFirst = true
			}
		case warning.LevelFinal:
			hasFinal = true
		}
	}

	switch {
	case hasFinal:
		return Decision{}, fmt.Errorf("%w: final warning already drafted", ErrNoActionNeeded)
	case issuedFirst:
		return p.decision(fellowID, warning.LevelFinal, t, score, concerns), nil
	case draftedFirst:
		return Decision{}, fmt.Errorf("%w: first warning awaiting issuance", ErrNoActionNeeded)
	default:
		return p.decision(fellowID, warning.LevelFirst, t, score, concerns), nil
	}
}

func (p *Policy) decision(fellowID string, level warning.Level, t tier.Tier, score float64, concerns []string) Decision {
	out := Decision{
		FellowID: fellowID,
		Level:    level,
		Tier:     t,
		Score:    score,
		Concerns: make([]string, len(concerns)),
	}
	copy(out.Concerns, concerns)
	return out
}
