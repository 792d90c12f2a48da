// Package signal defines the immutable per-fellow inputs the risk engine
// consumes, plus validation of their documented ranges.
package signal

import (
	"fmt"
)

// Collaboration ratings a fellow can report on a weekly check-in.
type CollaborationRating string

const (
	CollaborationGreat      CollaborationRating = "great"
	CollaborationGood       CollaborationRating = "good"
	CollaborationOkay       CollaborationRating = "okay"
	CollaborationStruggling CollaborationRating = "struggling"
)

// Self assessments a fellow can report against their weekly plan.
type SelfAssessment string

const (
	SelfExceeded SelfAssessment = "exceeded"
	SelfMet      SelfAssessment = "met"
	SelfBelow    SelfAssessment = "below"
)

// CheckInRecord is one weekly check-in as surfaced by the check-in store.
// Sentiment and risk contribution come from the external NLP collaborator.
type CheckInRecord struct {
	Week             int
	Submitted        bool
	Sentiment        float64 // [-1,1]
	HasSentiment     bool
	RiskContribution float64 // [0,1]
	HasRisk          bool
	Energy           int // [1,10]
	HasEnergy        bool
	Collaboration    CollaborationRating
	SelfAssessment   SelfAssessment
}

// Snapshot is the immutable, point-in-time signal bundle for one fellow at
// one evaluation week. Snapshots are owned by the evaluation run that
// created them and are read-only afterward.
type Snapshot struct {
	FellowID string
	Week     int

	// CheckInFrequency is the fraction of expected check-ins submitted
	// over the trailing window.
	CheckInFrequency float64 // [0,1]

	AvgSentiment float64 // [-1,1]
	HasSentiment bool

	AvgCheckInRisk float64 // [0,1]
	HasCheckInRisk bool

	AvgEnergy float64 // [1,10]
	HasEnergy bool

	// CollaborationIssueRate is the fraction of rated check-ins flagged
	// "struggling".
	CollaborationIssueRate float64 // [0,1]

	// BelowExpectationsRate is the fraction of self-assessed check-ins
	// reporting "below".
	BelowExpectationsRate float64 // [0,1]

	MilestoneAvg   float64 // [0,4]
	MilestoneCount int

	PriorWarningCount int

	// RiskIncreasing marks a rising trend across recent assessments.
	RiskIncreasing bool
}

// Validate checks every bounded field against its documented range.
// Out-of-range input is a collector-side defect; the scorer assumes a
// validated snapshot.
func (s Snapshot) Validate() error {
	checks := []struct {
		name    string
		ok      bool
		applies bool
	}{
		{"check_in_frequency", s.CheckInFrequency >= 0 && s.CheckInFrequency <= 1, true},
		{"avg_sentiment", s.AvgSentiment >= -1 && s.AvgSentiment <= 1, s.HasSentiment},
		{"avg_check_in_risk", s.AvgCheckInRisk >= 0 && s.AvgCheckInRisk <= 1, s.HasCheckInRisk},
		{"avg_energy", s.AvgEnergy >= 1 && s.AvgEnergy <= 10, s.HasEnergy},
		{"collaboration_issue_rate", s.CollaborationIssueRate >= 0 && s.CollaborationIssueRate <= 1, true},
		{"below_expectations_rate", s.BelowExpectationsRate >= 0 && s.BelowExpectationsRate <= 1, true},
		{"milestone_avg", s.MilestoneAvg >= 0 && s.MilestoneAvg <= 4, s.MilestoneCount > 0},
		{"prior_warning_count", s.PriorWarningCount >= 0, true},
	}
	for _, c := range checks {
		if c.applies && !c.ok {
			return fmt.Errorf("%w: %s", ErrOutOfRange, c.name)
		}
	}
	return nil
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
