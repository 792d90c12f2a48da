package escalation

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
)

func TestDecide(t *testing.T) {
	Convey("Given an escalation policy", t, func() {
		p := NewPolicy()
		concerns := []string{"Low check-in rate: 30%", "Negative sentiment: -0.40"}

		Convey("When a fellow is at_risk with no warning history", func() {
			dec, err := p.Decide("f-1", tier.AtRisk, 0.58, concerns, nil)

			Convey("Then a first warning is drafted", func() {
				So(err, ShouldBeNil)
				So(dec.Level, ShouldEqual, warning.LevelFirst)
				So(dec.FellowID, ShouldEqual, "f-1")
				So(dec.Tier, ShouldEqual, tier.AtRisk)
				So(dec.Score, ShouldEqual, 0.58)
				So(dec.Concerns, ShouldResemble, concerns)
			})
		})

		Convey("When a fellow is on_track", func() {
			_, err := p.Decide("f-1", tier.OnTrack, 0.09, nil, nil)

			Convey("Then no action is needed", func() {
				So(errors.Is(err, ErrNoActionNeeded), ShouldBeTrue)
			})
		})

		Convey("When a fellow is at monitor tier", func() {
			_, err := p.Decide("f-1", tier.Monitor, 0.3, nil, nil)

			Convey("Then no action is needed even with history", func() {
				So(errors.Is(err, ErrNoActionNeeded), ShouldBeTrue)
			})
		})

		Convey("When a first warning was issued and acknowledged but risk persists", func() {
			history := []warning.Record{
				{FellowID: "f-1", Level: warning.LevelFirst, Status: warning.StatusAcknowledged},
			}
			dec, err := p.Decide("f-1", tier.AtRisk, 0.61, concerns, history)

			Convey("Then the fellow escalates to a final warning", func() {
				So(err, ShouldBeNil)
				So(dec.Level, ShouldEqual, warning.LevelFinal)
			})
		})

		Convey("When a first warning is issued and the fellow never improved", func() {
			history := []warning.Record{
				{FellowID: "f-1", Level: warning.LevelFirst, Status: warning.StatusIssued},
			}
			dec, err := p.Decide("f-1", tier.Critical, 0.82, concerns, history)

			Convey("Then a final is drafted without waiting for acknowledgment", func() {
				So(err, ShouldBeNil)
				So(dec.Level, ShouldEqual, warning.LevelFinal)
			})
		})

		Convey("When a first warning is drafted but not yet issued", func() {
			history := []warning.Record{
				{FellowID: "f-1", Level: warning.LevelFirst, Status: warning.StatusDrafted},
			}
			_, err := p.Decide("f-1", tier.AtRisk, 0.6, concerns, history)

			Convey("Then the policy waits for human issuance", func() {
				So(errors.Is(err, ErrNoActionNeeded), ShouldBeTrue)
			})
		})

		Convey("When a final warning already exists", func() {
			for _, st := range []warning.Status{warning.StatusDrafted, warning.StatusIssued, warning.StatusAcknowledged} {
				history := []warning.Record{
					{FellowID: "f-1", Level: warning.LevelFirst, Status: warning.StatusAcknowledged},
					{FellowID: "f-1", Level: warning.LevelFinal, Status: st},
				}
				_, err := p.Decide("f-1", tier.Critical, 0.9, concerns, history)
				So(errors.Is(err, ErrNoActionNeeded), ShouldBeTrue)
			}
		})

		Convey("When the decision is inspected after mutating the input concerns", func() {
			in := []string{"a", "b"}
			dec, err := p.Decide("f-1", tier.AtRisk, 0.6, in, nil)
			So(err, ShouldBeNil)
			in[0] = "mutated"

			Convey("Then the decision holds its own copy", func() {
				So(dec.Concerns[0], ShouldEqual, "a")
			})
		})
	})
}

// A final must never be reachable without an issued first, regardless of
// how the history was assembled.
func TestEscalationMonotonicity(t *testing.T) {
	Convey("Given every history composed of a single first-level record", t, func() {
		p := NewPolicy()

		Convey("Then a final decision implies an issued first exists", func() {
			statuses := []warning.Status{warning.StatusDrafted, warning.StatusIssued, warning.StatusAcknowledged}
			for _, st := range statuses {
				history := []warning.Record{
					{FellowID: "f-1", Level: warning.LevelFirst, Status: st},
				}
				dec, err := p.Decide("f-1", tier.Critical, 0.9, nil, history)
				if err == nil && dec.Level == warning.LevelFinal {
					So(st, ShouldNotEqual, warning.StatusDrafted)
				}
			}
		})

		Convey("And an empty history can only ever yield a first", func() {
			for _, tr := range []tier.Tier{tier.OnTrack, tier.Monitor, tier.AtRisk, tier.Critical} {
				dec, err := p.Decide("f-1", tr, 0.9, nil, nil)
				if err == nil {
					So(dec.Level, ShouldEqual, warning.LevelFirst)
				}
			}
		})
	})
}
