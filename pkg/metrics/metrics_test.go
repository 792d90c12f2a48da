package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "test-namespace")
				So(manager.subsystem, ShouldEqual, "test-subsystem")
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording business metrics", func() {
			So(func() {
				RecordEvaluation("at_risk")
				RecordEvaluationDuplicate()
				RecordEvaluationSkipped()
				RecordScoringLatency(12.5)
				RecordEscalationDecided("first")
				RecordWarningDrafted("first")
				RecordWarningIssued("final")
				RecordWarningAcknowledged()
				RecordTransitionViolation()
			}, ShouldNotPanic)
		})

		Convey("When recording LLM metrics", func() {
			So(func() {
				RecordLLMCall("ok")
				RecordLLMLatency(250)
				RecordLLMRetry()
				RecordDraftParseRetry()
				RecordDraftFailure("timeout")
			}, ShouldNotPanic)
		})

		Convey("When updating operational gauges", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				UpdateWorkerCount(4)
				UpdateFellowsTracked(25)
				UpdateActiveWarnings("first", 2)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
