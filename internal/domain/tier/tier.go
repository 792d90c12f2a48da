// Package tier maps a risk score onto the ordered risk tiers and derives
// the human-readable concerns that justify an escalation.
package tier

import (
	"fmt"
	"sort"

	"github.com/okian/vigil/internal/domain/scoring"
	"github.com/okian/vigil/internal/domain/signal"
)

// Tier is the ordered severity classification of a risk score.
// The zero value is OnTrack.
type Tier int

const (
	OnTrack Tier = iota
	Monitor
	AtRisk
	Critical
)

// String returns the persisted name of the tier.
func (t Tier) String() string {
	switch t {
	case OnTrack:
		return "on_track"
	case Monitor:
		return "monitor"
	case AtRisk:
		return "at_risk"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseTier converts a persisted tier name back into a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "on_track":
		return OnTrack, nil
	case "monitor":
		return Monitor, nil
	case "at_risk":
		return AtRisk, nil
	case "critical":
		return Critical, nil
	default:
		return OnTrack, fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
}

// RecommendedAction names the follow-up a tier calls for.
type RecommendedAction string

const (
	ActionContinueMonitoring    RecommendedAction = "continue_monitoring"
	ActionSchedule1on1          RecommendedAction = "schedule_1_on_1"
	ActionIssueWarning          RecommendedAction = "issue_warning"
	ActionFinalWarning          RecommendedAction = "final_warning"
	ActionImmediateIntervention RecommendedAction = "immediate_intervention"
)

// Default tier thresholds (lower bound of each band).
const (
	defaultMonitorThreshold  = 0.25
	defaultAtRiskThreshold   = 0.50
	defaultCriticalThreshold = 0.75
)

// Classifier partitions [0,1] into the four tiers with fixed half-open
// thresholds and derives concerns from per-signal contributions.
// Thresholds are configuration; the classification logic never changes.
type Classifier struct {
	monitorAt  float64
	atRiskAt   float64
	criticalAt float64

	concernCutoffs map[string]float64
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds sets the lower bound of the monitor, at_risk, and
// critical bands. Invalid (non-ascending) thresholds are ignored.
func WithThresholds(monitor, atRisk, critical float64) Option {
	return func(c *Classifier) {
		if 0 < monitor && monitor < atRisk && atRisk < critical && critical <= 1 {
			c.monitorAt = monitor
			c.atRiskAt = atRisk
			c.criticalAt = critical
		}
	}
}

// WithThresholdsFromConfig sets thresholds from a configuration map with
// keys monitor, at_risk, critical.
func WithThresholdsFromConfig(thresholds map[string]float64) Option {
	return WithThresholds(thresholds["monitor"], thresholds["at_risk"], thresholds["critical"])
}

// WithConcernCutoffs replaces the per-signal concern cutoffs.
func WithConcernCutoffs(cutoffs map[string]float64) Option {
	return func(c *Classifier) {
		if len(cutoffs) == 0 {
			return
		}
		c.concernCutoffs = make(map[string]float64, len(cutoffs))
		for name, v := range cutoffs {
			c.concernCutoffs[name] = v
		}
	}
}

// NewClassifier creates a classifier with the standing default bands.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		monitorAt:  defaultMonitorThreshold,
		atRiskAt:   defaultAtRiskThreshold,
		criticalAt: defaultCriticalThreshold,
		concernCutoffs: map[string]float64{
			scoring.SignalCheckInFrequency: 0.67,
			scoring.SignalSentiment:        -0.3,
			scoring.SignalEnergy:           4.0,
			scoring.SignalCollaboration:    0.3,
			scoring.SignalMilestones:       2.5,
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify maps a score value in [0,1] onto exactly one tier.
// Bands are half-open: [0, monitor) on_track, [monitor, at_risk) monitor,
// [at_risk, critical) at_risk, [critical, 1] critical.
func (c *Classifier) Classify(score scoring.Score) Tier {
	switch v := score.Value; {
	case v < c.monitorAt:
		return OnTrack
	case v < c.atRiskAt:
		return Monitor
	case v < c.criticalAt:
		return AtRisk
	default:
		return Critical
	}
}

// Concerns renders the human-readable justification list from raw signals.
// The output feeds both the narrative drafter and review surfaces, so the
// wording is stable and data-backed.
func (c *Classifier) Concerns(snap signal.Snapshot) []string {
	var concerns []string

	if cutoff, ok := c.concernCutoffs[scoring.SignalCheckInFrequency]; ok && snap.CheckInFrequency < cutoff {
		concerns = append(concerns, fmt.Sprintf("Low check-in rate: %.0f%%", snap.CheckInFrequency*100))
	}
	if cutoff, ok := c.concernCutoffs[scoring.SignalSentiment]; ok && snap.HasSentiment && snap.AvgSentiment < cutoff {
		concerns = append(concerns, fmt.Sprintf("Negative sentiment: %.2f", snap.AvgSentiment))
	}
	if cutoff, ok := c.concernCutoffs[scoring.SignalEnergy]; ok && snap.HasEnergy && snap.AvgEnergy < cutoff {
		concerns = append(concerns, fmt.Sprintf("Low energy levels: %.1f/10", snap.AvgEnergy))
	}
	if cutoff, ok := c.concernCutoffs[scoring.SignalCollaboration]; ok && snap.CollaborationIssueRate > cutoff {
		concerns = append(concerns, "Struggling with team collaboration")
	}
	if cutoff, ok := c.concernCutoffs[scoring.SignalMilestones]; ok && snap.MilestoneCount > 0 && snap.MilestoneAvg < cutoff {
		concerns = append(concerns, fmt.Sprintf("Below target milestone performance: %.2f/4", snap.MilestoneAvg))
	}
	if snap.PriorWarningCount > 0 {
		concerns = append(concerns, fmt.Sprintf("%d warning(s) previously issued", snap.PriorWarningCount))
	}
	if snap.RiskIncreasing {
		concerns = append(concerns, "Risk score is trending upward")
	}

	sort.Strings(concerns)
	return concerns
}

// RecommendAction names the follow-up appropriate to a tier and the
// fellow's warning history.
func (c *Classifier) RecommendAction(t Tier, priorWarnings int) RecommendedAction {
	switch t {
	case Critical:
		return ActionImmediateIntervention
	case AtRisk:
		if priorWarnings >= 1 {
			return ActionFinalWarning
		}
		return ActionIssueWarning
	case Monitor:
		return ActionSchedule1on1
	default:
		return ActionContinueMonitoring
	}
}
