// Package repository owns persistence for warning records and risk
// assessments. The warning store is the enforcement point for the
// lifecycle invariants: no duplicate active warning per fellow and
// level, and no final without a previously issued first.
package repository

import (
	"context"
	"time"

	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
)

// Assessment is one persisted evaluation result for a fellow.
type Assessment struct {
	ID                string
	FellowID          string
	Week              int
	Score             float64
	Tier              tier.Tier
	Contributions     map[string]float64
	Concerns          []string
	RecommendedAction string
	CreatedAt         time.Time
}

// WarningStore persists warning records and mediates every lifecycle
// transition.
type WarningStore interface {
	// SaveDraft creates a record in drafted state, assigning an ID.
	// Returns ErrDuplicateActiveWarning if the fellow already has a
	// non-acknowledged warning at the same level, and
	// ErrEscalationOrder for a final with no issued first.
	SaveDraft(ctx context.Context, rec warning.Record) (warning.Record, error)

	// Get returns a record by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (warning.Record, error)

	// HistoryByFellow returns all of a fellow's records, newest first.
	HistoryByFellow(ctx context.Context, fellowID string) ([]warning.Record, error)

	// Issue transitions drafted -> issued with the reviewer's final
	// message. Any other starting state is ErrInvalidTransition.
	Issue(ctx context.Context, id, finalMessage, issuedBy string) (warning.Record, error)

	// Acknowledge transitions issued -> acknowledged.
	Acknowledge(ctx context.Context, id string) (warning.Record, error)

	// CountIssued returns how many of the fellow's warnings have ever
	// been issued, acknowledged ones included.
	CountIssued(ctx context.Context, fellowID string) (int, error)

	// ListByStatus returns every record currently in the given status,
	// newest first.
	ListByStatus(ctx context.Context, status warning.Status) ([]warning.Record, error)
}

// AssessmentStore persists evaluation results and serves history reads.
type AssessmentStore interface {
	// SaveAssessment stores one evaluation result, assigning an ID.
	SaveAssessment(ctx context.Context, a Assessment) (Assessment, error)

	// LatestByFellow returns the most recent assessment, or ErrNotFound.
	LatestByFellow(ctx context.Context, fellowID string) (Assessment, error)

	// RecentScores returns scores for weeks in [fromWeek, beforeWeek),
	// newest first. Feeds trend detection.
	RecentScores(ctx context.Context, fellowID string, fromWeek, beforeWeek int) ([]float64, error)

	// CohortSummary counts fellows by the tier of their latest
	// assessment.
	CohortSummary(ctx context.Context) (map[tier.Tier]int, error)
}

// Store bundles both persistence concerns behind one implementation.
type Store interface {
	WarningStore
	AssessmentStore
}
