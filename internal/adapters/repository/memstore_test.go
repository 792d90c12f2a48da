package repository

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
)

func draftRecord(fellowID string, level warning.Level) warning.Record {
	return warning.Record{
		FellowID:     fellowID,
		Level:        level,
		Concerns:     []string{"Low check-in rate: 30%"},
		Requirements: []string{"Submit weekly check-ins on time"},
		DraftMessage: "draft body",
	}
}

func TestMemStoreWarningLifecycle(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		ctx := context.Background()
		s := NewMemStore()

		Convey("When a first warning is drafted, issued and acknowledged", func() {
			rec, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)
			So(rec.ID, ShouldNotBeEmpty)
			So(rec.Status, ShouldEqual, warning.StatusDrafted)
			So(rec.Outcome, ShouldEqual, warning.OutcomePending)

			issued, err := s.Issue(ctx, rec.ID, "final body", "reviewer-1")
			So(err, ShouldBeNil)
			So(issued.Status, ShouldEqual, warning.StatusIssued)
			So(issued.FinalMessage, ShouldEqual, "final body")
			So(issued.IssuedBy, ShouldEqual, "reviewer-1")
			So(issued.IssuedAt.IsZero(), ShouldBeFalse)

			acked, err := s.Acknowledge(ctx, rec.ID)
			So(err, ShouldBeNil)
			So(acked.Status, ShouldEqual, warning.StatusAcknowledged)
			So(acked.AcknowledgedAt.IsZero(), ShouldBeFalse)

			Convey("Then the issued count reflects the lifecycle", func() {
				count, err := s.CountIssued(ctx, "f-1")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When issue is called twice on the same warning", func() {
			rec, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)

			_, err = s.Issue(ctx, rec.ID, "final body", "reviewer-1")
			So(err, ShouldBeNil)

			_, err = s.Issue(ctx, rec.ID, "final body again", "reviewer-2")

			Convey("Then the second call fails with InvalidTransition", func() {
				So(errors.Is(err, warning.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When a second first warning is drafted while one is active", func() {
			_, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)

			_, err = s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))

			Convey("Then the duplicate is rejected", func() {
				So(errors.Is(err, ErrDuplicateActiveWarning), ShouldBeTrue)
			})
		})

		Convey("When a final is drafted with no issued first", func() {
			_, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFinal))

			Convey("Then escalation order is enforced", func() {
				So(errors.Is(err, ErrEscalationOrder), ShouldBeTrue)
			})
		})

		Convey("When a final follows an issued first", func() {
			first, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)
			_, err = s.Issue(ctx, first.ID, "final body", "reviewer-1")
			So(err, ShouldBeNil)

			_, err = s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFinal))

			Convey("Then the draft is accepted", func() {
				So(err, ShouldBeNil)

				history, err := s.HistoryByFellow(ctx, "f-1")
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 2)
				So(history[0].Level, ShouldEqual, warning.LevelFinal)
			})
		})

		Convey("When acknowledging a drafted warning", func() {
			rec, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)

			_, err = s.Acknowledge(ctx, rec.ID)

			Convey("Then the skipped issuance is rejected", func() {
				So(errors.Is(err, warning.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When fetching an unknown warning", func() {
			_, err := s.Get(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When listing drafted warnings", func() {
			a, err := s.SaveDraft(ctx, draftRecord("f-1", warning.LevelFirst))
			So(err, ShouldBeNil)
			b, err := s.SaveDraft(ctx, draftRecord("f-2", warning.LevelFirst))
			So(err, ShouldBeNil)
			_, err = s.Issue(ctx, b.ID, "final body", "reviewer-1")
			So(err, ShouldBeNil)

			drafted, err := s.ListByStatus(ctx, warning.StatusDrafted)

			Convey("Then only records still drafted are returned", func() {
				So(err, ShouldBeNil)
				So(len(drafted), ShouldEqual, 1)
				So(drafted[0].ID, ShouldEqual, a.ID)
			})
		})
	})
}

func TestMemStoreAssessments(t *testing.T) {
	Convey("Given an in-memory store with saved assessments", t, func() {
		ctx := context.Background()
		s := NewMemStore()

		save := func(fellowID string, week int, score float64, tr tier.Tier) {
			_, err := s.SaveAssessment(ctx, Assessment{
				FellowID:          fellowID,
				Week:              week,
				Score:             score,
				Tier:              tr,
				Contributions:     map[string]float64{"check_in_frequency": 0.12},
				Concerns:          []string{"Low check-in rate: 30%"},
				RecommendedAction: "issue_warning",
			})
			So(err, ShouldBeNil)
		}

		save("f-1", 4, 0.40, tier.Monitor)
		save("f-1", 5, 0.55, tier.AtRisk)
		save("f-1", 6, 0.62, tier.AtRisk)
		save("f-2", 6, 0.10, tier.OnTrack)

		Convey("When asking for the latest assessment", func() {
			latest, err := s.LatestByFellow(ctx, "f-1")

			Convey("Then the newest week wins", func() {
				So(err, ShouldBeNil)
				So(latest.Week, ShouldEqual, 6)
				So(latest.Score, ShouldEqual, 0.62)
			})
		})

		Convey("When asking for recent scores before the current week", func() {
			scores, err := s.RecentScores(ctx, "f-1", 4, 6)

			Convey("Then scores arrive newest first and exclude the current week", func() {
				So(err, ShouldBeNil)
				So(scores, ShouldResemble, []float64{0.55, 0.40})
			})
		})

		Convey("When summarizing the cohort", func() {
			summary, err := s.CohortSummary(ctx)

			Convey("Then each fellow counts once at their latest tier", func() {
				So(err, ShouldBeNil)
				So(summary[tier.AtRisk], ShouldEqual, 1)
				So(summary[tier.OnTrack], ShouldEqual, 1)
			})
		})

		Convey("When a fellow has no assessments", func() {
			_, err := s.LatestByFellow(ctx, "f-ghost")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}
