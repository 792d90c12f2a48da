// Package warning defines the warning record and its lifecycle state
// machine. The record is the only stateful entity in the risk engine;
// every status change must pass Transition.
package warning

import (
	"fmt"
	"time"
)

// Level orders the warning ladder. Escalation is monotonic: a final
// warning is only reachable after a first was issued.
type Level string

const (
	LevelFirst Level = "first"
	LevelFinal Level = "final"
)

// ParseLevel converts a persisted level name back into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelFirst:
		return LevelFirst, nil
	case LevelFinal:
		return LevelFinal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// Status is the lifecycle state of a warning record.
type Status string

const (
	StatusDrafted      Status = "drafted"
	StatusIssued       Status = "issued"
	StatusAcknowledged Status = "acknowledged"
)

// Outcome records how an issued warning resolved, set by human reviewers.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeResolved  Outcome = "resolved"
	OutcomeEscalated Outcome = "escalated"
	OutcomeRemoval   Outcome = "removal"
)

// Record is a fellow's warning at one lifecycle stage. Records are owned
// by the warning store; callers receive copies.
type Record struct {
	ID           string
	FellowID     string
	Level        Level
	Concerns     []string
	Requirements []string
	DraftMessage string
	FinalMessage string
	Status       Status
	Outcome      Outcome

	ReviewDeadline time.Time
	CreatedAt      time.Time
	IssuedAt       time.Time
	IssuedBy       string
	AcknowledgedAt time.Time
}

// Active reports whether the record still demands attention: drafted or
// issued but not yet acknowledged.
func (r Record) Active() bool {
	return r.Status == StatusDrafted || r.Status == StatusIssued
}

// Transition validates a status change. Only drafted to issued and
// issued to acknowledged are legal; anything else, including repeating
// a transition, is ErrInvalidTransition. Violations are never silently
// corrected: the caller must re-fetch current state and re-decide.
func Transition(from, to Status) error {
	switch {
	case from == StatusDrafted && to == StatusIssued:
		return nil
	case from == StatusIssued && to == StatusAcknowledged:
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
}
