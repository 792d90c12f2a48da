package collector

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vigil/internal/domain/signal"
)

type fakeCheckIns struct {
	records []signal.CheckInRecord
	err     error
}

func (f *fakeCheckIns) RecentCheckIns(_ context.Context, _ string, _, _ int) ([]signal.CheckInRecord, error) {
	return f.records, f.err
}

type fakeMilestones struct {
	scores []float64
}

func (f *fakeMilestones) MilestoneScores(_ context.Context, _ string) ([]float64, error) {
	return f.scores, nil
}

type fakeWarnings struct {
	issued int
}

func (f *fakeWarnings) CountIssued(_ context.Context, _ string) (int, error) {
	return f.issued, nil
}

type fakeAssessments struct {
	scores []float64
}

func (f *fakeAssessments) RecentScores(_ context.Context, _ string, _, _ int) ([]float64, error) {
	return f.scores, nil
}

func newCollector(checkIns *fakeCheckIns, milestones *fakeMilestones, warnings *fakeWarnings, assessments *fakeAssessments) *Collector {
	c, err := New(checkIns, milestones, warnings, assessments)
	So(err, ShouldBeNil)
	return c
}

func TestCollect(t *testing.T) {
	Convey("Given a collector over fake stores", t, func() {
		ctx := context.Background()

		Convey("When the fellow has a full three-week history", func() {
			checkIns := &fakeCheckIns{records: []signal.CheckInRecord{
				{Week: 6, Submitted: true, Sentiment: -0.2, HasSentiment: true, RiskContribution: 0.5, HasRisk: true, Energy: 4, HasEnergy: true, Collaboration: signal.CollaborationStruggling, SelfAssessment: signal.SelfBelow},
				{Week: 5, Submitted: true, Sentiment: -0.6, HasSentiment: true, Energy: 3, HasEnergy: true, Collaboration: signal.CollaborationOkay, SelfAssessment: signal.SelfMet},
				{Week: 4, Submitted: true, Sentiment: 0.2, HasSentiment: true, Energy: 5, HasEnergy: true},
			}}
			c := newCollector(checkIns, &fakeMilestones{scores: []float64{2.0, 1.5}}, &fakeWarnings{issued: 1}, &fakeAssessments{scores: []float64{0.6, 0.4}})

			snap, err := c.Collect(ctx, "f-1", 6)

			Convey("Then the snapshot aggregates every signal", func() {
				So(err, ShouldBeNil)
				So(snap.FellowID, ShouldEqual, "f-1")
				So(snap.Week, ShouldEqual, 6)
				So(snap.CheckInFrequency, ShouldEqual, 1.0)
				So(snap.HasSentiment, ShouldBeTrue)
				So(snap.AvgSentiment, ShouldAlmostEqual, -0.2, 1e-9)
				So(snap.HasCheckInRisk, ShouldBeTrue)
				So(snap.AvgCheckInRisk, ShouldAlmostEqual, 0.5, 1e-9)
				So(snap.AvgEnergy, ShouldAlmostEqual, 4.0, 1e-9)
				So(snap.CollaborationIssueRate, ShouldAlmostEqual, 0.5, 1e-9)
				So(snap.BelowExpectationsRate, ShouldAlmostEqual, 0.5, 1e-9)
				So(snap.MilestoneAvg, ShouldAlmostEqual, 1.75, 1e-9)
				So(snap.MilestoneCount, ShouldEqual, 2)
				So(snap.PriorWarningCount, ShouldEqual, 1)
				So(snap.RiskIncreasing, ShouldBeTrue)
			})
		})

		Convey("When the fellow has no check-in rows in the window", func() {
			c := newCollector(&fakeCheckIns{}, &fakeMilestones{}, &fakeWarnings{}, &fakeAssessments{})

			_, err := c.Collect(ctx, "f-ghost", 6)

			Convey("Then collection fails with ErrDataUnavailable", func() {
				So(errors.Is(err, ErrDataUnavailable), ShouldBeTrue)
			})
		})

		Convey("When check-ins exist but carry no optional fields", func() {
			checkIns := &fakeCheckIns{records: []signal.CheckInRecord{
				{Week: 6, Submitted: true},
			}}
			c := newCollector(checkIns, &fakeMilestones{}, &fakeWarnings{}, &fakeAssessments{})

			snap, err := c.Collect(ctx, "f-1", 6)

			Convey("Then unreported signals stay unreported, not zero", func() {
				So(err, ShouldBeNil)
				So(snap.HasSentiment, ShouldBeFalse)
				So(snap.HasCheckInRisk, ShouldBeFalse)
				So(snap.HasEnergy, ShouldBeFalse)
				So(snap.MilestoneCount, ShouldEqual, 0)
				So(snap.CheckInFrequency, ShouldAlmostEqual, 1.0/3.0, 1e-9)
			})
		})

		Convey("When a store value is out of range", func() {
			checkIns := &fakeCheckIns{records: []signal.CheckInRecord{
				{Week: 6, Submitted: true, Energy: 14, HasEnergy: true},
			}}
			c := newCollector(checkIns, &fakeMilestones{scores: []float64{9}}, &fakeWarnings{}, &fakeAssessments{})

			snap, err := c.Collect(ctx, "f-1", 6)

			Convey("Then the value is clamped into its documented range", func() {
				So(err, ShouldBeNil)
				So(snap.AvgEnergy, ShouldEqual, 10.0)
				So(snap.MilestoneAvg, ShouldEqual, 4.0)
			})
		})

		Convey("When the check-in store fails", func() {
			c := newCollector(&fakeCheckIns{err: errors.New("connection reset")}, &fakeMilestones{}, &fakeWarnings{}, &fakeAssessments{})

			_, err := c.Collect(ctx, "f-1", 6)

			Convey("Then the failure propagates and is not DataUnavailable", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrDataUnavailable), ShouldBeFalse)
			})
		})
	})
}

func TestRiskIncreasing(t *testing.T) {
	Convey("Given prior score trends, newest first", t, func() {
		Convey("Then a >10% jump over the prior average is increasing", func() {
			So(riskIncreasing([]float64{0.6, 0.4}), ShouldBeTrue)
		})
		Convey("Then a flat trend is not", func() {
			So(riskIncreasing([]float64{0.5, 0.5}), ShouldBeFalse)
		})
		Convey("Then a single score is not a trend", func() {
			So(riskIncreasing([]float64{0.9}), ShouldBeFalse)
		})
		Convey("Then a jump inside the 10% band is not", func() {
			So(riskIncreasing([]float64{0.44, 0.4}), ShouldBeFalse)
		})
	})
}
