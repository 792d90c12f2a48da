// Package service wires the risk engine together and implements the
// dependencies required by the HTTP API: evaluation runs, the warning
// lifecycle entry points, and dashboard reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/vigil/internal/adapters/collector"
	"github.com/okian/vigil/internal/adapters/llm"
	eventqueue "github.com/okian/vigil/internal/adapters/mq/queue"
	workerpool "github.com/okian/vigil/internal/adapters/mq/worker"
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/dedupe"
	"github.com/okian/vigil/internal/domain/escalation"
	"github.com/okian/vigil/internal/domain/narrative"
	"github.com/okian/vigil/internal/domain/scoring"
	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// CohortSource enumerates the fellows under monitoring and the current
// program week. Backed by the external roster collaborator.
type CohortSource interface {
	FellowIDs(ctx context.Context) ([]string, error)
	CurrentWeek(ctx context.Context) int
}

// Stats is the operational snapshot served at /stats.
type Stats struct {
	FellowsAssessed int            `json:"fellows_assessed"`
	TierCounts      map[string]int `json:"tier_counts"`
	QueueDepth      int            `json:"queue_depth"`
	DedupeEntries   int64          `json:"dedupe_entries"`
	Workers         int            `json:"workers"`
	ActiveWarnings  map[string]int `json:"active_warnings"`
	Uptime          string         `json:"uptime"`
}

// Service implements the API dependencies for the risk engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      eventqueue.Queue
	collector  *collector.Collector
	scorer     scoring.Scorer
	classifier *tier.Classifier
	policy     *escalation.Policy
	drafter    *narrative.Drafter
	pool       *workerpool.Pool

	// External collaborators
	checkIns   collector.CheckInStore
	milestones collector.MilestoneStore
	roster     workerpool.Roster
	cohort     CohortSource
	completer  llm.Completer

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	lookbackWeeks  int
	assessInterval time.Duration
	weights        map[string]float64
	trendAmplifier float64
	thresholds     map[string]float64
	cutoffs        map[string]float64
	minMessageLen  int
	parseRetries   int

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1000,
		dedupeSize:     100_000,
		lookbackWeeks:  3,
		trendAmplifier: 1.2,
		minMessageLen:  200,
		parseRetries:   2,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.checkIns == nil || s.milestones == nil || s.roster == nil {
		return errors.New("service: external stores not configured")
	}
	if s.completer == nil {
		return errors.New("service: llm completer not configured")
	}

	s.logger.Info(ctx, "starting risk engine...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)

	scorerOpts := []scoring.Option{
		scoring.WithTrendAmplifier(s.trendAmplifier),
	}
	if len(s.weights) > 0 {
		scorerOpts = append(scorerOpts, scoring.WithWeights(s.weights))
	}
	s.scorer = scoring.NewWeightedScorer(scorerOpts...)

	classifierOpts := []tier.Option{}
	if len(s.thresholds) > 0 {
		classifierOpts = append(classifierOpts, tier.WithThresholdsFromConfig(s.thresholds))
	}
	if len(s.cutoffs) > 0 {
		classifierOpts = append(classifierOpts, tier.WithConcernCutoffs(s.cutoffs))
	}
	s.classifier = tier.NewClassifier(classifierOpts...)

	s.policy = escalation.NewPolicy()

	coll, err := collector.New(s.checkIns, s.milestones, s.store, s.store,
		collector.WithLookbackWeeks(s.lookbackWeeks))
	if err != nil {
		return fmt.Errorf("build collector: %w", err)
	}
	s.collector = coll

	drafter, err := narrative.NewDrafter(s.completer,
		narrative.WithMinMessageLen(s.minMessageLen),
		narrative.WithParseRetries(s.parseRetries))
	if err != nil {
		return fmt.Errorf("build drafter: %w", err)
	}
	s.drafter = drafter

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.roster, s.drafter, s.store)
	s.pool.Start(ctx)

	if s.assessInterval > 0 && s.cohort != nil {
		go s.runPeriodicAssessor(ctx)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "risk engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("lookback_weeks", s.lookbackWeeks),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping risk engine...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "risk engine stopped")
}

// EvaluateFellow runs one evaluation: collect, score, classify, persist
// the assessment, and enqueue a draft job when escalation is warranted.
// Re-submitting the same fellow and week is idempotent: the stored
// assessment is returned without re-scoring.
func (s *Service) EvaluateFellow(ctx context.Context, fellowID string, week int) (repository.Assessment, error) {
	key := dedupe.Key(fellowID, week)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordEvaluationDuplicate()
		s.logger.Debug(ctx, "duplicate evaluation, returning stored assessment",
			logger.String("fellow_id", fellowID),
			logger.Int("week", week))
		return s.store.LatestByFellow(ctx, fellowID)
	}

	snap, err := s.collector.Collect(ctx, fellowID, week)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		if errors.Is(err, collector.ErrDataUnavailable) {
			metrics.RecordEvaluationSkipped()
		}
		return repository.Assessment{}, err
	}

	scoreStart := time.Now()
	score := s.scorer.Score(snap)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))

	riskTier := s.classifier.Classify(score)
	concerns := s.classifier.Concerns(snap)
	action := s.classifier.RecommendAction(riskTier, snap.PriorWarningCount)

	assessment, err := s.store.SaveAssessment(ctx, repository.Assessment{
		FellowID:          fellowID,
		Week:              week,
		Score:             score.Value,
		Tier:              riskTier,
		Contributions:     score.Contributions,
		Concerns:          concerns,
		RecommendedAction: string(action),
	})
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return repository.Assessment{}, fmt.Errorf("save assessment: %w", err)
	}
	metrics.RecordEvaluation(riskTier.String())

	history, err := s.store.HistoryByFellow(ctx, fellowID)
	if err != nil {
		return assessment, fmt.Errorf("load warning history: %w", err)
	}

	decision, err := s.policy.Decide(fellowID, riskTier, score.Value, concerns, history)
	if err != nil {
		if errors.Is(err, escalation.ErrNoActionNeeded) {
			return assessment, nil
		}
		return assessment, err
	}
	metrics.RecordEscalationDecided(string(decision.Level))

	snapCopy := snap
	decision.Snapshot = &snapCopy
	if !s.queue.Enqueue(ctx, decision) {
		s.deduper.Unrecord(ctx, key)
		s.logger.Error(ctx, "draft queue rejected decision",
			logger.String("fellow_id", fellowID),
			logger.String("level", string(decision.Level)))
		return assessment, ErrBackpressure
	}

	s.logger.Info(ctx, "escalation queued",
		logger.String("fellow_id", fellowID),
		logger.String("level", string(decision.Level)),
		logger.String("tier", riskTier.String()),
		logger.Float64("score", score.Value))
	return assessment, nil
}

// EvaluateCohort evaluates every fellow in the cohort for the week.
// Fellows with no data are skipped, not failed.
func (s *Service) EvaluateCohort(ctx context.Context, week int) error {
	if s.cohort == nil {
		return errors.New("service: cohort source not configured")
	}
	ids, err := s.cohort.FellowIDs(ctx)
	if err != nil {
		return fmt.Errorf("list fellows: %w", err)
	}

	var failed int
	for _, id := range ids {
		if _, err := s.EvaluateFellow(ctx, id, week); err != nil {
			if errors.Is(err, collector.ErrDataUnavailable) {
				continue
			}
			failed++
			s.logger.Error(ctx, "cohort evaluation failed for fellow",
				logger.String("fellow_id", id),
				logger.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("cohort evaluation: %d of %d fellows failed", failed, len(ids))
	}
	return nil
}

func (s *Service) runPeriodicAssessor(ctx context.Context) {
	ticker := time.NewTicker(s.assessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			week := s.cohort.CurrentWeek(ctx)
			if err := s.EvaluateCohort(ctx, week); err != nil {
				s.logger.Error(ctx, "periodic assessment failed", logger.Error(err))
			}
		}
	}
}

// Issue transitions a drafted warning to issued with the reviewer's
// final message.
func (s *Service) Issue(ctx context.Context, warningID, finalMessage, issuedBy string) (warning.Record, error) {
	rec, err := s.store.Issue(ctx, warningID, finalMessage, issuedBy)
	if err != nil {
		return warning.Record{}, err
	}
	metrics.RecordWarningIssued(string(rec.Level))
	s.logger.Info(ctx, "warning issued",
		logger.String("warning_id", rec.ID),
		logger.String("fellow_id", rec.FellowID),
		logger.String("level", string(rec.Level)),
		logger.String("issued_by", issuedBy))
	return rec, nil
}

// Acknowledge transitions an issued warning to acknowledged.
func (s *Service) Acknowledge(ctx context.Context, warningID string) (warning.Record, error) {
	rec, err := s.store.Acknowledge(ctx, warningID)
	if err != nil {
		return warning.Record{}, err
	}
	metrics.RecordWarningAcknowledged()
	s.logger.Info(ctx, "warning acknowledged",
		logger.String("warning_id", rec.ID),
		logger.String("fellow_id", rec.FellowID))
	return rec, nil
}

// GetWarning returns one warning record.
func (s *Service) GetWarning(ctx context.Context, warningID string) (warning.Record, error) {
	return s.store.Get(ctx, warningID)
}

// WarningsByFellow returns a fellow's full warning history.
func (s *Service) WarningsByFellow(ctx context.Context, fellowID string) ([]warning.Record, error) {
	return s.store.HistoryByFellow(ctx, fellowID)
}

// WarningsByStatus returns every warning in the given status.
func (s *Service) WarningsByStatus(ctx context.Context, status warning.Status) ([]warning.Record, error) {
	return s.store.ListByStatus(ctx, status)
}

// LatestAssessment returns a fellow's most recent assessment.
func (s *Service) LatestAssessment(ctx context.Context, fellowID string) (repository.Assessment, error) {
	return s.store.LatestByFellow(ctx, fellowID)
}

// Dashboard returns cohort counts by latest tier.
func (s *Service) Dashboard(ctx context.Context) (map[tier.Tier]int, error) {
	return s.store.CohortSummary(ctx)
}

// GetStats assembles the operational snapshot.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	summary, err := s.store.CohortSummary(ctx)
	if err != nil {
		return Stats{}, err
	}

	tierCounts := make(map[string]int, len(summary))
	var assessed int
	for t, n := range summary {
		tierCounts[t.String()] = n
		assessed += n
	}

	active := map[string]int{}
	for _, level := range []warning.Level{warning.LevelFirst, warning.LevelFinal} {
		active[string(level)] = 0
	}
	for _, status := range []warning.Status{warning.StatusDrafted, warning.StatusIssued} {
		recs, err := s.store.ListByStatus(ctx, status)
		if err != nil {
			return Stats{}, err
		}
		for _, rec := range recs {
			active[string(rec.Level)]++
		}
	}

	return Stats{
		FellowsAssessed: assessed,
		TierCounts:      tierCounts,
		QueueDepth:      s.queue.Len(ctx),
		DedupeEntries:   s.deduper.Size(),
		Workers:         s.workerCount,
		ActiveWarnings:  active,
		Uptime:          time.Since(s.startedAt).Round(time.Second).String(),
	}, nil
}
