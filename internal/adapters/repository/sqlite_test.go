package repository

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
)

// The SQLite backend must match MemStore's invariant behavior exactly;
// these mirror the core lifecycle cases against a real database.
func TestSQLiteStoreWarningLifecycle(t *testing.T) {
	Convey("Given a SQLite store", t, func() {
		ctx := context.Background()
		s, err := NewSQLiteStore(":memory:")
		So(err, ShouldBeNil)
		Reset(func() { s.Close() })

		Convey("When a warning runs the full lifecycle", func() {
			rec, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)
			So(rec.Status, ShouldEqual, warning.StatusDrafted)

			got, err := s.Get(ctx, rec.ID)
			So(err, ShouldBeNil)
			So(got.Concerns, ShouldResemble, rec.Concerns)
			So(got.Requirements, ShouldResemble, rec.Requirements)

			issued, err := s.Issue(ctx, rec.ID, "final body", "reviewer-1")
			So(err, ShouldBeNil)
			So(issued.Status, ShouldEqual, warning.StatusIssued)

			acked, err := s.Acknowledge(ctx, rec.ID)
			So(err, ShouldBeNil)
			So(acked.Status, ShouldEqual, warning.StatusAcknowledged)

			count, err := s.CountIssued(ctx, "f-1")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})

		Convey("When issue is called twice", func() {
			rec, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)
			_, err = s.Issue(ctx, rec.ID, "final body", "reviewer-1")
			So(err, ShouldBeNil)

			_, err = s.Issue(ctx, rec.ID, "again", "reviewer-2")
			So(errors.Is(err, warning.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When a duplicate active draft is attempted", func() {
			_, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)

			_, err = s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(errors.Is(err, ErrDuplicateActiveWarning), ShouldBeTrue)
		})

		Convey("When a final is drafted without an issued first", func() {
			_, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFinal))
			So(errors.Is(err, ErrEscalationOrder), ShouldBeTrue)
		})

		Convey("When fetching an unknown warning", func() {
			_, err := s.Get(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestSQLiteStoreAssessments(t *testing.T) {
	Convey("Given a SQLite store with saved assessments", t, func() {
		ctx := context.Background()
		s, err := NewSQLiteStore(":memory:")
		So(err, ShouldBeNil)
		Reset(func() { s.Close() })

		for _, a := range []Assessment{
			{FellowID: "f-1", Week: 5, Score: 0.55, Tier: tier.AtRisk, Contributions: map[string]float64{"avg_energy": 0.07}, Concerns: []string{"Low energy levels: 3.0/10"}, RecommendedAction: "issue_warning"},
			{FellowID: "f-1", Week: 6, Score: 0.62, Tier: tier.AtRisk, RecommendedAction: "issue_warning"},
			{FellowID: "f-2", Week: 6, Score: 0.10, Tier: tier.OnTrack, RecommendedAction: "continue_monitoring"},
		} {
			_, err := s.SaveAssessment(ctx, a)
			So(err, ShouldBeNil)
		}

		Convey("When reading the latest assessment", func() {
			latest, err := s.LatestByFellow(ctx, "f-1")
			So(err, ShouldBeNil)
			So(latest.Week, ShouldEqual, 6)
			So(latest.Tier, ShouldEqual, tier.AtRisk)
		})

		Convey("When reading recent scores", func() {
			scores, err := s.RecentScores(ctx, "f-1", 4, 6)
			So(err, ShouldBeNil)
			So(scores, ShouldResemble, []float64{0.55})
		})

		Convey("When summarizing the cohort", func() {
			summary, err := s.CohortSummary(ctx)
			So(err, ShouldBeNil)
			So(summary[tier.AtRisk], ShouldEqual, 1)
			So(summary[tier.OnTrack], ShouldEqual, 1)
		})
	})
}
