// Package collector assembles the per-fellow signal snapshot from the
// external stores. It performs no scoring: only assembly, validation
// and clamping of each field into its documented range.
package collector

import (
	"context"
	"fmt"

	"github.com/okian/vigil/internal/domain/signal"
)

// CheckInStore serves the check-in history window.
type CheckInStore interface {
	// RecentCheckIns returns check-ins for weeks in [fromWeek, toWeek],
	// newest first.
	RecentCheckIns(ctx context.Context, fellowID string, fromWeek, toWeek int) ([]signal.CheckInRecord, error)
}

// MilestoneStore serves graded milestone scores, each in [0, 4].
type MilestoneStore interface {
	MilestoneScores(ctx context.Context, fellowID string) ([]float64, error)
}

// WarningHistory serves the count of warnings ever issued to a fellow.
type WarningHistory interface {
	CountIssued(ctx context.Context, fellowID string) (int, error)
}

// AssessmentHistory serves prior risk scores, newest first, for trend
// detection.
type AssessmentHistory interface {
	RecentScores(ctx context.Context, fellowID string, fromWeek, beforeWeek int) ([]float64, error)
}

// Collector gathers one fellow's signals as of an evaluation week.
type Collector struct {
	checkIns      CheckInStore
	milestones    MilestoneStore
	warnings      WarningHistory
	assessments   AssessmentHistory
	lookbackWeeks int
	trendWeeks    int
}

// New builds a collector over the external stores.
func New(checkIns CheckInStore, milestones MilestoneStore, warnings WarningHistory, assessments AssessmentHistory, opts ...Option) (*Collector, error) {
	if checkIns == nil || milestones == nil || warnings == nil || assessments == nil {
		return nil, ErrMissingStore
	}
	c := &Collector{
		checkIns:      checkIns,
		milestones:    milestones,
		warnings:      warnings,
		assessments:   assessments,
		lookbackWeeks: 3,
		trendWeeks:    2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Collect assembles the snapshot for one fellow at one week. A fellow
// with no check-in rows at all in the window is ErrDataUnavailable;
// that is distinct from a fellow whose signals are all zero, which is
// a valid snapshot.
func (c *Collector) Collect(ctx context.Context, fellowID string, asOfWeek int) (signal.Snapshot, error) {
	fromWeek := asOfWeek - c.lookbackWeeks
	if fromWeek < 0 {
		fromWeek = 0
	}

	records, err := c.checkIns.RecentCheckIns(ctx, fellowID, fromWeek, asOfWeek)
	if err != nil {
		return signal.Snapshot{}, fmt.Errorf("check-in store: %w", err)
	}
	if len(records) == 0 {
		return signal.Snapshot{}, fmt.Errorf("%w: fellow %s week %d", ErrDataUnavailable, fellowID, asOfWeek)
	}

	snap := signal.Snapshot{
		FellowID: fellowID,
		Week:     asOfWeek,
	}
	c.fillCheckInSignals(&snap, records)

	scores, err := c.milestones.MilestoneScores(ctx, fellowID)
	if err != nil {
		return signal.Snapshot{}, fmt.Errorf("milestone store: %w", err)
	}
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += signal.Clamp(s, 0, 4)
		}
		snap.MilestoneAvg = sum / float64(len(scores))
		snap.MilestoneCount = len(scores)
	}

	issued, err := c.warnings.CountIssued(ctx, fellowID)
	if err != nil {
		return signal.Snapshot{}, fmt.Errorf("warning history: %w", err)
	}
	snap.PriorWarningCount = issued

	trendFrom := asOfWeek - c.trendWeeks
	if trendFrom < 0 {
		trendFrom = 0
	}
	trend, err := c.assessments.RecentScores(ctx, fellowID, trendFrom, asOfWeek)
	if err != nil {
		return signal.Snapshot{}, fmt.Errorf("assessment history: %w", err)
	}
	snap.RiskIncreasing = riskIncreasing(trend)

	if err := snap.Validate(); err != nil {
		return signal.Snapshot{}, fmt.Errorf("assembled snapshot: %w", err)
	}
	return snap, nil
}

func (c *Collector) fillCheckInSignals(snap *signal.Snapshot, records []signal.CheckInRecord) {
	var (
		submitted             int
		sentimentSum, riskSum float64
		energySum             float64
		sentiments, risks     int
		energies              int
		struggling, rated     int
		below, assessed       int
	)

	for _, rec := range records {
		if !rec.Submitted {
			continue
		}
		submitted++

		if rec.HasSentiment {
			sentimentSum += signal.Clamp(rec.Sentiment, -1, 1)
			sentiments++
		}
		if rec.HasRisk {
			riskSum += signal.Clamp(rec.RiskContribution, 0, 1)
			risks++
		}
		if rec.HasEnergy {
			energySum += signal.Clamp(float64(rec.Energy), 1, 10)
			energies++
		}
		if rec.Collaboration != "" {
			rated++
			if rec.Collaboration == signal.CollaborationStruggling {
				struggling++
			}
		}
		if rec.SelfAssessment != "" {
			assessed++
			if rec.SelfAssessment == signal.SelfBelow {
				below++
			}
		}
	}

	snap.CheckInFrequency = signal.Clamp(float64(submitted)/float64(c.lookbackWeeks), 0, 1)

	if sentiments > 0 {
		snap.AvgSentiment = sentimentSum / float64(sentiments)
		snap.HasSentiment = true
	}
	if risks > 0 {
		snap.AvgCheckInRisk = riskSum / float64(risks)
		snap.HasCheckInRisk = true
	}
	if energies > 0 {
		snap.AvgEnergy = energySum / float64(energies)
		snap.HasEnergy = true
	}
	if rated > 0 {
		snap.CollaborationIssueRate = float64(struggling) / float64(rated)
	}
	if assessed > 0 {
		snap.BelowExpectationsRate = float64(below) / float64(assessed)
	}
}

// riskIncreasing reports an upward trend: the latest prior score more
// than 10% above the average of the ones before it. Scores arrive
// newest first.
func riskIncreasing(trend []float64) bool {
	if len(trend) < 2 {
		return false
	}
	latest := trend[0]
	var sum float64
	for _, v := range trend[1:] {
		sum += v
	}
	previousAvg := sum / float64(len(trend)-1)
	return latest > previousAvg*1.1
}
