package service

import (
	"time"

	"github.com/okian/vigil/internal/adapters/collector"
	"github.com/okian/vigil/internal/adapters/llm"
	workerpool "github.com/okian/vigil/internal/adapters/mq/worker"
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of draft workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize sets the draft queue capacity.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the evaluation deduper.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithLookbackWeeks sets the signal collection window.
func WithLookbackWeeks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lookbackWeeks = n
		}
	}
}

// WithAssessInterval enables the periodic cohort assessor. Zero
// disables it.
func WithAssessInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.assessInterval = d
		}
	}
}

// WithWeights overrides the scoring signal weights.
func WithWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.weights = weights
		}
	}
}

// WithTrendAmplifier sets the upward-trend score multiplier.
func WithTrendAmplifier(a float64) Option {
	return func(s *Service) {
		if a >= 1 {
			s.trendAmplifier = a
		}
	}
}

// WithTierThresholds overrides the tier band lower bounds.
func WithTierThresholds(thresholds map[string]float64) Option {
	return func(s *Service) {
		if len(thresholds) > 0 {
			s.thresholds = thresholds
		}
	}
}

// WithConcernCutoffs overrides the per-signal concern cutoffs.
func WithConcernCutoffs(cutoffs map[string]float64) Option {
	return func(s *Service) {
		if len(cutoffs) > 0 {
			s.cutoffs = cutoffs
		}
	}
}

// WithDraftLimits sets the minimum accepted draft message length and
// how many times a malformed reply is retried.
func WithDraftLimits(minMessageLen, parseRetries int) Option {
	return func(s *Service) {
		if minMessageLen > 0 {
			s.minMessageLen = minMessageLen
		}
		if parseRetries >= 0 {
			s.parseRetries = parseRetries
		}
	}
}

// WithStore injects the warning and assessment store. Defaults to the
// in-memory store when unset.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCompleter injects the LLM completer used for drafting.
func WithCompleter(c llm.Completer) Option {
	return func(s *Service) {
		if c != nil {
			s.completer = c
		}
	}
}

// WithCheckInStore injects the external check-in source.
func WithCheckInStore(cs collector.CheckInStore) Option {
	return func(s *Service) {
		if cs != nil {
			s.checkIns = cs
		}
	}
}

// WithMilestoneStore injects the external milestone source.
func WithMilestoneStore(ms collector.MilestoneStore) Option {
	return func(s *Service) {
		if ms != nil {
			s.milestones = ms
		}
	}
}

// WithRoster injects the fellow identity source.
func WithRoster(r workerpool.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

// WithCohortSource injects the cohort enumerator used by cohort-wide
// evaluation and the periodic assessor.
func WithCohortSource(cs CohortSource) Option {
	return func(s *Service) {
		if cs != nil {
			s.cohort = cs
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
