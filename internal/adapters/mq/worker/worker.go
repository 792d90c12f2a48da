// Package worker drains escalation decisions off the queue, drives the
// narrative drafter and persists the resulting warning drafts. Workers
// are the only place the engine waits on the LLM collaborator.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/vigil/internal/adapters/mq/queue"
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/narrative"
	"github.com/okian/vigil/internal/domain/warning"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second

	firstReviewWindow = 14 * 24 * time.Hour
	finalReviewWindow = 7 * 24 * time.Hour
)

// Decision abstracts what workers read off the queue.
type Decision = queue.Decision

// Profile is the roster's view of a fellow.
type Profile struct {
	ID   string
	Name string
	Role string
	Week int
}

// Roster resolves fellow identity for the drafting prompt.
type Roster interface {
	Profile(ctx context.Context, fellowID string) (Profile, error)
}

// Drafter produces the warning narrative for a decision.
type Drafter interface {
	Draft(ctx context.Context, req narrative.Request) (narrative.Draft, error)
}

// WarningStore is the slice of the repository workers write to.
type WarningStore interface {
	SaveDraft(ctx context.Context, rec warning.Record) (warning.Record, error)
	HistoryByFellow(ctx context.Context, fellowID string) ([]warning.Record, error)
	CountIssued(ctx context.Context, fellowID string) (int, error)
}

// Queue defines how workers receive decisions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Decision
}

// Worker processes queued decisions until stopped.
type Worker struct {
	queue   Queue
	roster  Roster
	drafter Drafter
	store   WarningStore
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, roster Roster, drafter Drafter, store WarningStore, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		roster:   roster,
		drafter:  drafter,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	decisions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-decisions:
			if !ok {
				return
			}
			if err := w.processDecision(ctx, d); err != nil {
				w.logger.Error(ctx, "decision processing failed",
					logger.String("fellow_id", d.FellowID),
					logger.String("level", string(d.Level)),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processDecision turns one escalation decision into a drafted warning.
// A timed-out or failed draft leaves no record behind; a duplicate
// rejection from the store means another evaluation got there first and
// is not an error worth surfacing.
func (w *Worker) processDecision(ctx context.Context, d Decision) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	profile, err := w.roster.Profile(ctx, d.FellowID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "roster_error")
		return fmt.Errorf("resolve fellow %s: %w", d.FellowID, err)
	}

	priorCount, err := w.store.CountIssued(ctx, d.FellowID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("count issued for %s: %w", d.FellowID, err)
	}

	req := narrative.Request{
		FellowID:          d.FellowID,
		FellowName:        profile.Name,
		Role:              profile.Role,
		Week:              profile.Week,
		Level:             d.Level,
		Tier:              d.Tier,
		Score:             d.Score,
		Concerns:          d.Concerns,
		PriorWarningCount: priorCount,
		Signals:           d.Snapshot,
	}

	if d.Level == warning.LevelFinal {
		prev, err := w.previousWarning(ctx, d.FellowID)
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "store_error")
			return fmt.Errorf("load previous warning for %s: %w", d.FellowID, err)
		}
		req.Previous = prev
	}

	draft, err := w.drafter.Draft(ctx, req)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "draft_error")
		return fmt.Errorf("draft %s warning for %s: %w", d.Level, d.FellowID, err)
	}

	window := firstReviewWindow
	if d.Level == warning.LevelFinal {
		window = finalReviewWindow
	}

	rec, err := w.store.SaveDraft(ctx, warning.Record{
		FellowID:       d.FellowID,
		Level:          d.Level,
		Concerns:       d.Concerns,
		Requirements:   draft.Requirements,
		DraftMessage:   draft.Message,
		ReviewDeadline: time.Now().Add(window),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveWarning) {
			w.logger.Warn(ctx, "draft already exists, dropping decision",
				logger.String("fellow_id", d.FellowID),
				logger.String("level", string(d.Level)))
			return nil
		}
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("save draft for %s: %w", d.FellowID, err)
	}

	metrics.RecordWarningDrafted(string(d.Level))
	w.logger.Info(ctx, "warning drafted",
		logger.String("fellow_id", d.FellowID),
		logger.String("warning_id", rec.ID),
		logger.String("level", string(d.Level)),
		logger.String("tone", draft.Tone))
	return nil
}

// previousWarning returns the fellow's most recent issued or
// acknowledged first warning for the final-warning prompt.
func (w *Worker) previousWarning(ctx context.Context, fellowID string) (*narrative.PreviousWarning, error) {
	history, err := w.store.HistoryByFellow(ctx, fellowID)
	if err != nil {
		return nil, err
	}
	for _, rec := range history {
		if rec.Level != warning.LevelFirst {
			continue
		}
		if rec.Status == warning.StatusIssued || rec.Status == warning.StatusAcknowledged {
			return &narrative.PreviousWarning{
				Level:        rec.Level,
				Requirements: rec.Requirements,
				IssuedAt:     rec.IssuedAt,
				Acknowledged: rec.Status == warning.StatusAcknowledged,
			}, nil
		}
	}
	return nil, nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue

	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 defaults to NumCPU.
func NewPool(workerCount int, q Queue, roster Roster, drafter Drafter, store WarningStore) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:  make([]*Worker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, roster, drafter, store, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
