package signal_test

import (
	"errors"
	"testing"

	"github.com/okian/vigil/internal/domain/signal"
	. "github.com/smartystreets/goconvey/convey"
)

func validSnapshot() signal.Snapshot {
	return signal.Snapshot{
		FellowID:               "fellow-1",
		Week:                   6,
		CheckInFrequency:       0.67,
		AvgSentiment:           0.2,
		HasSentiment:           true,
		AvgCheckInRisk:         0.3,
		HasCheckInRisk:         true,
		AvgEnergy:              6,
		HasEnergy:              true,
		CollaborationIssueRate: 0,
		BelowExpectationsRate:  0,
		MilestoneAvg:           3.0,
		MilestoneCount:         2,
		PriorWarningCount:      0,
	}
}

func TestSnapshotValidate(t *testing.T) {
	Convey("Given a fully populated snapshot", t, func() {
		s := validSnapshot()

		Convey("Then validation passes", func() {
			So(s.Validate(), ShouldBeNil)
		})

		Convey("When check-in frequency exceeds 1", func() {
			s.CheckInFrequency = 1.2
			err := s.Validate()
			So(err, ShouldNotBeNil)
			So(errors.Is(err, signal.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When sentiment is below -1", func() {
			s.AvgSentiment = -1.5
			So(errors.Is(s.Validate(), signal.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When energy is outside 1..10", func() {
			s.AvgEnergy = 0
			So(errors.Is(s.Validate(), signal.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When an unreported field is out of range it is ignored", func() {
			s.HasEnergy = false
			s.AvgEnergy = 0
			So(s.Validate(), ShouldBeNil)
		})

		Convey("When milestone average is out of range without milestones it is ignored", func() {
			s.MilestoneCount = 0
			s.MilestoneAvg = 9
			So(s.Validate(), ShouldBeNil)
		})

		Convey("When prior warning count is negative", func() {
			s.PriorWarningCount = -1
			So(errors.Is(s.Validate(), signal.ErrOutOfRange), ShouldBeTrue)
		})
	})
}

func TestClamp(t *testing.T) {
	Convey("Given the clamp helper", t, func() {
		So(signal.Clamp(1.4, 0, 1), ShouldEqual, 1.0)
		So(signal.Clamp(-0.2, 0, 1), ShouldEqual, 0.0)
		So(signal.Clamp(0.5, 0, 1), ShouldEqual, 0.5)
	})
}
