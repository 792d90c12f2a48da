// Package seed generates a reproducible synthetic fellowship cohort and
// serves it through the collector and roster interfaces. It stands in
// for the fellowship platform's check-in and milestone data until that
// integration lands.
package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/vigil/internal/adapters/mq/worker"
	"github.com/okian/vigil/internal/domain/signal"
)

// Archetype names a generated fellow's behavior pattern.
type Archetype string

const (
	ArchetypeThriving   Archetype = "thriving"
	ArchetypeCoasting   Archetype = "coasting"
	ArchetypeStruggling Archetype = "struggling"
	ArchetypeGhosting   Archetype = "ghosting"
)

// archetypeCycle fixes the archetype mix: half the cohort thriving, the
// rest split across the risk patterns.
var archetypeCycle = []Archetype{
	ArchetypeThriving,
	ArchetypeCoasting,
	ArchetypeThriving,
	ArchetypeStruggling,
	ArchetypeThriving,
	ArchetypeGhosting,
}

var firstNames = []string{
	"Jordan", "Sam", "Alex", "Riley", "Casey", "Morgan",
	"Taylor", "Quinn", "Avery", "Rowan", "Jesse", "Kai",
}

var roles = []string{
	"Backend Engineer", "Frontend Engineer", "Data Engineer",
	"ML Engineer", "Platform Engineer", "Product Engineer",
}

// Fellow is one generated cohort member.
type Fellow struct {
	ID        string
	Name      string
	Role      string
	Archetype Archetype
}

// Cohort is an immutable generated cohort. It implements the check-in
// store, milestone store, roster, and cohort source consumed by the
// risk engine.
type Cohort struct {
	fellows    []Fellow
	byID       map[string]*Fellow
	checkIns   map[string][]signal.CheckInRecord
	milestones map[string][]float64
	week       int
}

// Option applies a configuration option to cohort generation.
type Option func(*generator)

type generator struct {
	seed int64
	week int
}

// WithSeed fixes the random source. The same seed and size always
// produce the same cohort, fellow IDs included.
func WithSeed(seed int64) Option {
	return func(g *generator) {
		g.seed = seed
	}
}

// WithWeek sets the current program week.
func WithWeek(week int) Option {
	return func(g *generator) {
		if week > 0 {
			g.week = week
		}
	}
}

// FellowID derives the deterministic ID for cohort position i under a
// seed. CLI tools use this to address fellows generated by the service.
func FellowID(seed int64, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("vigil-fellow-%d-%d", seed, i))).String()
}

// NewCohort generates a cohort of the given size.
func NewCohort(size int, opts ...Option) *Cohort {
	g := &generator{seed: 42, week: 6}
	for _, opt := range opts {
		opt(g)
	}
	if size < 1 {
		size = 1
	}

	rng := rand.New(rand.NewSource(g.seed))
	c := &Cohort{
		byID:       make(map[string]*Fellow, size),
		checkIns:   make(map[string][]signal.CheckInRecord, size),
		milestones: make(map[string][]float64, size),
		week:       g.week,
	}

	for i := 0; i < size; i++ {
		f := Fellow{
			ID:        FellowID(g.seed, i),
			Name:      fmt.Sprintf("%s %c.", firstNames[i%len(firstNames)], 'A'+rune(i%26)),
			Role:      roles[i%len(roles)],
			Archetype: archetypeCycle[i%len(archetypeCycle)],
		}
		c.fellows = append(c.fellows, f)
		c.byID[f.ID] = &c.fellows[len(c.fellows)-1]
		c.checkIns[f.ID] = generateCheckIns(rng, f.Archetype, g.week)
		c.milestones[f.ID] = generateMilestones(rng, f.Archetype, g.week)
	}
	return c
}

// Fellows returns the generated cohort members.
func (c *Cohort) Fellows() []Fellow {
	out := make([]Fellow, len(c.fellows))
	copy(out, c.fellows)
	return out
}

// RecentCheckIns serves the check-in window, newest first.
func (c *Cohort) RecentCheckIns(_ context.Context, fellowID string, fromWeek, toWeek int) ([]signal.CheckInRecord, error) {
	var out []signal.CheckInRecord
	for _, rec := range c.checkIns[fellowID] {
		if rec.Week >= fromWeek && rec.Week <= toWeek {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MilestoneScores serves the fellow's graded milestones.
func (c *Cohort) MilestoneScores(_ context.Context, fellowID string) ([]float64, error) {
	return c.milestones[fellowID], nil
}

// Profile resolves a fellow for the drafting prompt.
func (c *Cohort) Profile(_ context.Context, fellowID string) (worker.Profile, error) {
	f, ok := c.byID[fellowID]
	if !ok {
		return worker.Profile{}, fmt.Errorf("unknown fellow %s", fellowID)
	}
	return worker.Profile{ID: f.ID, Name: f.Name, Role: f.Role, Week: c.week}, nil
}

// FellowIDs enumerates the cohort for cohort-wide evaluation.
func (c *Cohort) FellowIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(c.fellows))
	for _, f := range c.fellows {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// CurrentWeek returns the program week the cohort was generated at.
func (c *Cohort) CurrentWeek(_ context.Context) int {
	return c.week
}

func generateCheckIns(rng *rand.Rand, a Archetype, week int) []signal.CheckInRecord {
	var recs []signal.CheckInRecord
	for w := week; w >= 1; w-- {
		rec := signal.CheckInRecord{Week: w}
		switch a {
		case ArchetypeThriving:
			rec.Submitted = true
			rec.Sentiment, rec.HasSentiment = between(rng, 0.4, 0.9), true
			rec.RiskContribution, rec.HasRisk = between(rng, 0.05, 0.2), true
			rec.Energy, rec.HasEnergy = intBetween(rng, 7, 9), true
			rec.Collaboration = pick(rng, signal.CollaborationGreat, signal.CollaborationGood)
			rec.SelfAssessment = pick(rng, signal.SelfMet, signal.SelfExceeded)
		case ArchetypeCoasting:
			rec.Submitted = rng.Float64() < 0.8
			if rec.Submitted {
				rec.Sentiment, rec.HasSentiment = between(rng, -0.1, 0.4), true
				rec.RiskContribution, rec.HasRisk = between(rng, 0.2, 0.45), true
				rec.Energy, rec.HasEnergy = intBetween(rng, 5, 7), true
				rec.Collaboration = pick(rng, signal.CollaborationGood, signal.CollaborationOkay)
				rec.SelfAssessment = signal.SelfMet
			}
		case ArchetypeStruggling:
			rec.Submitted = true
			rec.Sentiment, rec.HasSentiment = between(rng, -0.7, -0.2), true
			rec.RiskContribution, rec.HasRisk = between(rng, 0.6, 0.9), true
			rec.Energy, rec.HasEnergy = intBetween(rng, 2, 4), true
			rec.Collaboration = pick(rng, signal.CollaborationStruggling, signal.CollaborationStruggling, signal.CollaborationOkay)
			rec.SelfAssessment = signal.SelfBelow
		case ArchetypeGhosting:
			rec.Submitted = rng.Float64() < 0.2
			if rec.Submitted {
				rec.Sentiment, rec.HasSentiment = between(rng, -0.5, 0.0), true
				rec.Energy, rec.HasEnergy = intBetween(rng, 3, 5), true
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

func generateMilestones(rng *rand.Rand, a Archetype, week int) []float64 {
	// One graded milestone every two weeks.
	n := week / 2
	var scores []float64
	for i := 0; i < n; i++ {
		switch a {
		case ArchetypeThriving:
			scores = append(scores, between(rng, 3.2, 4.0))
		case ArchetypeCoasting:
			scores = append(scores, between(rng, 2.2, 3.0))
		case ArchetypeStruggling:
			scores = append(scores, between(rng, 0.8, 1.8))
		case ArchetypeGhosting:
			// Ghosting fellows stop submitting milestone work.
		}
	}
	return scores
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func pick[T any](rng *rand.Rand, choices ...T) T {
	return choices[rng.Intn(len(choices))]
}
