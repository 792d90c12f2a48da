package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/vigil/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9180")
			convey.So(cfg.DraftQueueSize, convey.ShouldEqual, 1_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.LookbackWeeks, convey.ShouldEqual, 3)
			convey.So(cfg.Store, convey.ShouldEqual, "memory")
		})

		convey.Convey("Then the scoring weights cover every signal", func() {
			for _, name := range []string{
				"check_in_frequency", "check_in_risk", "sentiment", "energy",
				"milestones", "collaboration", "below_expectations", "prior_warnings",
			} {
				convey.So(cfg.Weights[name], convey.ShouldBeGreaterThan, 0)
			}
		})

		convey.Convey("Then the tier thresholds ascend", func() {
			convey.So(cfg.TierThresholds["monitor"], convey.ShouldBeLessThan, cfg.TierThresholds["at_risk"])
			convey.So(cfg.TierThresholds["at_risk"], convey.ShouldBeLessThan, cfg.TierThresholds["critical"])
		})
	})
}
