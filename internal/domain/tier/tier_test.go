package tier_test

import (
	"testing"

	"github.com/okian/vigil/internal/domain/scoring"
	"github.com/okian/vigil/internal/domain/signal"
	"github.com/okian/vigil/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given a classifier with default thresholds", t, func() {
		c := tier.NewClassifier()

		Convey("Then the canonical band edges classify as documented", func() {
			cases := map[float64]tier.Tier{
				0.0:  tier.OnTrack,
				0.24: tier.OnTrack,
				0.25: tier.Monitor,
				0.49: tier.Monitor,
				0.50: tier.AtRisk,
				0.74: tier.AtRisk,
				0.75: tier.Critical,
				1.0:  tier.Critical,
			}
			for value, want := range cases {
				So(c.Classify(scoring.Score{Value: value}), ShouldEqual, want)
			}
		})

		Convey("Then every score in [0,1] maps to exactly one tier", func() {
			// Sweep the full range; ordering over the sweep must be
			// monotonic and hit all four tiers with no gaps.
			prev := tier.OnTrack
			seen := map[tier.Tier]bool{}
			for i := 0; i <= 1000; i++ {
				v := float64(i) / 1000
				got := c.Classify(scoring.Score{Value: v})
				So(got, ShouldBeGreaterThanOrEqualTo, prev)
				seen[got] = true
				prev = got
			}
			So(len(seen), ShouldEqual, 4)
		})

		Convey("Then tiers are totally ordered by severity", func() {
			So(tier.OnTrack, ShouldBeLessThan, tier.Monitor)
			So(tier.Monitor, ShouldBeLessThan, tier.AtRisk)
			So(tier.AtRisk, ShouldBeLessThan, tier.Critical)
		})
	})

	Convey("Given a classifier with configured thresholds", t, func() {
		c := tier.NewClassifier(tier.WithThresholds(0.3, 0.6, 0.9))

		So(c.Classify(scoring.Score{Value: 0.29}), ShouldEqual, tier.OnTrack)
		So(c.Classify(scoring.Score{Value: 0.59}), ShouldEqual, tier.Monitor)
		So(c.Classify(scoring.Score{Value: 0.89}), ShouldEqual, tier.AtRisk)
		So(c.Classify(scoring.Score{Value: 0.9}), ShouldEqual, tier.Critical)

		Convey("And non-ascending thresholds are ignored", func() {
			bad := tier.NewClassifier(tier.WithThresholds(0.5, 0.4, 0.9))
			So(bad.Classify(scoring.Score{Value: 0.3}), ShouldEqual, tier.Monitor)
		})
	})
}

func TestParseTier(t *testing.T) {
	Convey("Given persisted tier names", t, func() {
		for _, tr := range []tier.Tier{tier.OnTrack, tier.Monitor, tier.AtRisk, tier.Critical} {
			parsed, err := tier.ParseTier(tr.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, tr)
		}

		_, err := tier.ParseTier("catastrophic")
		So(err, ShouldNotBeNil)
	})
}

func TestConcerns(t *testing.T) {
	Convey("Given a struggling fellow's snapshot", t, func() {
		c := tier.NewClassifier()
		snap := signal.Snapshot{
			CheckInFrequency:       0.3,
			AvgSentiment:           -0.4,
			HasSentiment:           true,
			AvgEnergy:              3,
			HasEnergy:              true,
			CollaborationIssueRate: 0.5,
			MilestoneAvg:           1.8,
			MilestoneCount:         2,
			PriorWarningCount:      1,
			RiskIncreasing:         true,
		}

		concerns := c.Concerns(snap)

		Convey("Then every breached cutoff surfaces a concern", func() {
			So(len(concerns), ShouldEqual, 7)
			joined := ""
			for _, s := range concerns {
				joined += s + "\n"
			}
			So(joined, ShouldContainSubstring, "check-in rate")
			So(joined, ShouldContainSubstring, "Negative sentiment")
			So(joined, ShouldContainSubstring, "energy")
			So(joined, ShouldContainSubstring, "collaboration")
			So(joined, ShouldContainSubstring, "milestone")
			So(joined, ShouldContainSubstring, "previously issued")
			So(joined, ShouldContainSubstring, "trending upward")
		})
	})

	Convey("Given a healthy snapshot", t, func() {
		c := tier.NewClassifier()
		snap := signal.Snapshot{
			CheckInFrequency: 1.0,
			AvgSentiment:     0.7,
			HasSentiment:     true,
			AvgEnergy:        8,
			HasEnergy:        true,
			MilestoneAvg:     3.5,
			MilestoneCount:   2,
		}

		Convey("Then no concerns are raised", func() {
			So(c.Concerns(snap), ShouldBeEmpty)
		})
	})
}

func TestRecommendAction(t *testing.T) {
	Convey("Given the action ladder", t, func() {
		c := tier.NewClassifier()

		So(c.RecommendAction(tier.Critical, 0), ShouldEqual, tier.ActionImmediateIntervention)
		So(c.RecommendAction(tier.AtRisk, 0), ShouldEqual, tier.ActionIssueWarning)
		So(c.RecommendAction(tier.AtRisk, 1), ShouldEqual, tier.ActionFinalWarning)
		So(c.RecommendAction(tier.Monitor, 0), ShouldEqual, tier.ActionSchedule1on1)
		So(c.RecommendAction(tier.OnTrack, 0), ShouldEqual, tier.ActionContinueMonitoring)
	})
}
