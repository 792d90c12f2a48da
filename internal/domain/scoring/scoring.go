// Package scoring computes a bounded risk score from a validated signal
// snapshot. Scoring is pure: same snapshot in, same score out, no I/O.
package scoring

import (
	"math"

	"github.com/okian/vigil/internal/domain/signal"
)

// Signal names used for weights and contribution reporting.
const (
	SignalCheckInFrequency  = "check_in_frequency"
	SignalCheckInRisk       = "check_in_risk"
	SignalSentiment         = "sentiment"
	SignalEnergy            = "energy"
	SignalMilestones        = "milestones"
	SignalCollaboration     = "collaboration"
	SignalBelowExpectations = "below_expectations"
	SignalPriorWarnings     = "prior_warnings"
)

// Default scoring configuration constants.
const (
	defaultTrendAmplifier = 1.2
	maxScoreValue         = 1.0
	warningCountCap       = 3.0
)

// defaultWeights follows the program's standing risk policy.
func defaultWeights() map[string]float64 {
	return map[string]float64{
		SignalCheckInFrequency:  0.15,
		SignalCheckInRisk:       0.25,
		SignalSentiment:         0.15,
		SignalEnergy:            0.10,
		SignalMilestones:        0.20,
		SignalCollaboration:     0.05,
		SignalBelowExpectations: 0.05,
		SignalPriorWarnings:     0.05,
	}
}

// Score is the derived, immutable result of one evaluation. It is
// superseded by a newer Score rather than updated in place.
type Score struct {
	// Value is the overall risk score in [0,1].
	Value float64

	// Contributions maps each applied signal name to its normalized
	// risk term in [0,1], retained for explainability.
	Contributions map[string]float64
}

// Scorer computes a risk score from a snapshot.
type Scorer interface {
	Score(s signal.Snapshot) Score
}

// WeightedScorer implements Scorer as a fixed weighted combination.
// Weights are configuration, not learned state.
type WeightedScorer struct {
	weights        map[string]float64
	trendAmplifier float64
}

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithWeights sets signal weights from a configuration map. Unknown names
// are ignored; non-positive weights disable a signal.
func WithWeights(weights map[string]float64) Option {
	return func(s *WeightedScorer) {
		if len(weights) == 0 {
			return
		}
		s.weights = make(map[string]float64, len(weights))
		for name, w := range weights {
			if w > 0 {
				s.weights[name] = w
			}
		}
	}
}

// WithTrendAmplifier sets the multiplier applied when risk is rising.
func WithTrendAmplifier(a float64) Option {
	return func(s *WeightedScorer) {
		if a >= 1 {
			s.trendAmplifier = a
		}
	}
}

// NewWeightedScorer creates a scorer with the standing default weights.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		weights:        defaultWeights(),
		trendAmplifier: defaultTrendAmplifier,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the bounded risk score for a validated snapshot.
//
// Each signal is normalized into a [0,1] risk term, scaled by its weight,
// and summed; the sum is normalized by the total weight actually applied
// so missing optional signals do not dilute the score. A rising risk
// trend amplifies the result, and the final value is clamped to [0,1].
func (s *WeightedScorer) Score(snap signal.Snapshot) Score {
	contributions := make(map[string]float64, len(s.weights))
	var sum, applied float64

	add := func(name string, term float64) {
		w, ok := s.weights[name]
		if !ok {
			return
		}
		term = signal.Clamp(term, 0, 1)
		contributions[name] = term
		sum += term * w
		applied += w
	}

	// Check-in frequency scores as a step function: missing most
	// check-ins is much worse than missing one.
	switch {
	case snap.CheckInFrequency < 1.0/3.0:
		add(SignalCheckInFrequency, 0.8)
	case snap.CheckInFrequency < 2.0/3.0:
		add(SignalCheckInFrequency, 0.4)
	default:
		add(SignalCheckInFrequency, 0)
	}

	if snap.HasCheckInRisk {
		add(SignalCheckInRisk, snap.AvgCheckInRisk)
	}
	if snap.HasSentiment {
		// Sentiment maps [-1,1] to risk [1,0].
		add(SignalSentiment, 1.0-(snap.AvgSentiment+1.0)/2.0)
	}
	if snap.HasEnergy {
		add(SignalEnergy, 1.0-snap.AvgEnergy/10.0)
	}
	if snap.MilestoneCount > 0 {
		add(SignalMilestones, 1.0-snap.MilestoneAvg/4.0)
	}
	add(SignalCollaboration, snap.CollaborationIssueRate)
	add(SignalBelowExpectations, snap.BelowExpectationsRate)
	add(SignalPriorWarnings, math.Min(float64(snap.PriorWarningCount)/warningCountCap, 1.0))

	value := 0.0
	if applied > 0 {
		value = sum / applied
	}

	if snap.RiskIncreasing {
		value = math.Min(value*s.trendAmplifier, maxScoreValue)
	}

	// Two decimal places keeps scores stable across storage round trips.
	value = math.Round(value*100) / 100

	return Score{
		Value:         signal.Clamp(value, 0, maxScoreValue),
		Contributions: contributions,
	}
}
