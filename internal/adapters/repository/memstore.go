package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
	"github.com/okian/vigil/pkg/metrics"
)

// MemStore is an in-memory Store. It is the default backend and the
// reference for the invariant behavior the SQLite backend must match.
type MemStore struct {
	mu          sync.RWMutex
	warnings    map[string]warning.Record
	byFellow    map[string][]string
	assessments map[string][]Assessment
	now         func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		warnings:    make(map[string]warning.Record),
		byFellow:    make(map[string][]string),
		assessments: make(map[string][]Assessment),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MemOption configures a MemStore.
type MemOption func(*MemStore)

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *MemStore) SaveDraft(_ context.Context, rec warning.Record) (warning.Record, error) {
	if _, err := warning.ParseLevel(string(rec.Level)); err != nil {
		return warning.Record{}, err
	}
	if rec.FellowID == "" {
		return warning.Record{}, fmt.Errorf("%w: empty fellow id", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDraftInvariants(rec.FellowID, rec.Level); err != nil {
		return warning.Record{}, err
	}

	rec.ID = uuid.NewString()
	rec.Status = warning.StatusDrafted
	rec.Outcome = warning.OutcomePending
	rec.CreatedAt = s.now()
	rec.Concerns = copyStrings(rec.Concerns)
	rec.Requirements = copyStrings(rec.Requirements)

	s.warnings[rec.ID] = rec
	s.byFellow[rec.FellowID] = append([]string{rec.ID}, s.byFellow[rec.FellowID]...)
	s.updateActiveGauges()
	return rec, nil
}

// checkDraftInvariants must be called with the lock held.
func (s *MemStore) checkDraftInvariants(fellowID string, level warning.Level) error {
	var issuedFirst bool
	for _, id := range s.byFellow[fellowID] {
		existing := s.warnings[id]
		if existing.Level == level && existing.Active() {
			return fmt.Errorf("%w: fellow %s level %s", ErrDuplicateActiveWarning, fellowID, level)
		}
		if existing.Level == warning.LevelFirst &&
			(existing.Status == warning.StatusIssued || existing.Status == warning.StatusAcknowledged) {
			issuedFirst = true
		}
	}
	if level == warning.LevelFinal && !issuedFirst {
		return fmt.Errorf("%w: fellow %s", ErrEscalationOrder, fellowID)
	}
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (warning.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.warnings[id]
	if !ok {
		return warning.Record{}, fmt.Errorf("%w: warning %s", ErrNotFound, id)
	}
	return rec, nil
}

func (s *MemStore) HistoryByFellow(_ context.Context, fellowID string) ([]warning.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byFellow[fellowID]
	out := make([]warning.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.warnings[id])
	}
	return out, nil
}

func (s *MemStore) Issue(_ context.Context, id, finalMessage, issuedBy string) (warning.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.warnings[id]
	if !ok {
		return warning.Record{}, fmt.Errorf("%w: warning %s", ErrNotFound, id)
	}
	if err := warning.Transition(rec.Status, warning.StatusIssued); err != nil {
		metrics.RecordTransitionViolation()
		return warning.Record{}, err
	}

	rec.Status = warning.StatusIssued
	rec.FinalMessage = finalMessage
	rec.IssuedBy = issuedBy
	rec.IssuedAt = s.now()
	s.warnings[id] = rec
	s.updateActiveGauges()
	return rec, nil
}

func (s *MemStore) Acknowledge(_ context.Context, id string) (warning.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.warnings[id]
	if !ok {
		return warning.Record{}, fmt.Errorf("%w: warning %s", ErrNotFound, id)
	}
	if err := warning.Transition(rec.Status, warning.StatusAcknowledged); err != nil {
		metrics.RecordTransitionViolation()
		return warning.Record{}, err
	}

	rec.Status = warning.StatusAcknowledged
	rec.AcknowledgedAt = s.now()
	s.warnings[id] = rec
	s.updateActiveGauges()
	return rec, nil
}

func (s *MemStore) CountIssued(_ context.Context, fellowID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for _, id := range s.byFellow[fellowID] {
		rec := s.warnings[id]
		if rec.Status == warning.StatusIssued || rec.Status == warning.StatusAcknowledged {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) ListByStatus(_ context.Context, status warning.Status) ([]warning.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []warning.Record
	for _, rec := range s.warnings {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) SaveAssessment(_ context.Context, a Assessment) (Assessment, error) {
	if a.FellowID == "" {
		return Assessment{}, fmt.Errorf("%w: empty fellow id", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	a.Concerns = copyStrings(a.Concerns)
	a.Contributions = copyContributions(a.Contributions)

	s.assessments[a.FellowID] = append([]Assessment{a}, s.assessments[a.FellowID]...)
	metrics.UpdateFellowsTracked(len(s.assessments))
	return a, nil
}

func (s *MemStore) LatestByFellow(_ context.Context, fellowID string) (Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.assessments[fellowID]
	if len(history) == 0 {
		return Assessment{}, fmt.Errorf("%w: no assessments for fellow %s", ErrNotFound, fellowID)
	}
	latest := history[0]
	for _, a := range history[1:] {
		if a.Week > latest.Week {
			latest = a
		}
	}
	return latest, nil
}

func (s *MemStore) RecentScores(_ context.Context, fellowID string, fromWeek, beforeWeek int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type weekScore struct {
		week  int
		score float64
	}
	var matched []weekScore
	for _, a := range s.assessments[fellowID] {
		if a.Week >= fromWeek && a.Week < beforeWeek {
			matched = append(matched, weekScore{week: a.Week, score: a.Score})
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].week > matched[j].week
	})

	out := make([]float64, 0, len(matched))
	for _, m := range matched {
		out = append(out, m.score)
	}
	return out, nil
}

func (s *MemStore) CohortSummary(_ context.Context) (map[tier.Tier]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := make(map[tier.Tier]int)
	for _, history := range s.assessments {
		if len(history) == 0 {
			continue
		}
		latest := history[0]
		for _, a := range history[1:] {
			if a.Week > latest.Week {
				latest = a
			}
		}
		summary[latest.Tier]++
	}
	return summary, nil
}

// updateActiveGauges must be called with the lock held.
func (s *MemStore) updateActiveGauges() {
	counts := map[warning.Level]int{}
	for _, rec := range s.warnings {
		if rec.Active() {
			counts[rec.Level]++
		}
	}
	metrics.UpdateActiveWarnings(string(warning.LevelFirst), counts[warning.LevelFirst])
	metrics.UpdateActiveWarnings(string(warning.LevelFinal), counts[warning.LevelFinal])
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyContributions(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
