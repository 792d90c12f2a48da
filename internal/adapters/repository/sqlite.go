package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
	"github.com/okian/vigil/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS warnings (
	id              TEXT PRIMARY KEY,
	fellow_id       TEXT NOT NULL,
	level           TEXT NOT NULL,
	concerns        TEXT NOT NULL,
	requirements    TEXT NOT NULL,
	draft_message   TEXT NOT NULL,
	final_message   TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	outcome         TEXT NOT NULL,
	review_deadline TEXT,
	created_at      TEXT NOT NULL,
	issued_at       TEXT,
	issued_by       TEXT NOT NULL DEFAULT '',
	acknowledged_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_warnings_fellow ON warnings(fellow_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_warnings_status ON warnings(status);

CREATE TABLE IF NOT EXISTS assessments (
	id                 TEXT PRIMARY KEY,
	fellow_id          TEXT NOT NULL,
	week               INTEGER NOT NULL,
	score              REAL NOT NULL,
	tier               TEXT NOT NULL,
	contributions      TEXT NOT NULL,
	concerns           TEXT NOT NULL,
	recommended_action TEXT NOT NULL,
	created_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_fellow ON assessments(fellow_id, week DESC);
`

// SQLiteStore is a Store backed by a SQLite database file. It enforces
// the same lifecycle invariants as MemStore, inside transactions so
// concurrent drafts cannot race past the duplicate check.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock injects a clock, for tests.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDraft(ctx context.Context, rec warning.Record) (warning.Record, error) {
	if _, err := warning.ParseLevel(string(rec.Level)); err != nil {
		return warning.Record{}, err
	}
	if rec.FellowID == "" {
		return warning.Record{}, fmt.Errorf("%w: empty fellow id", ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return warning.Record{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var activeSame int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM warnings WHERE fellow_id = ? AND level = ? AND status IN ('drafted', 'issued')`,
		rec.FellowID, string(rec.Level)).Scan(&activeSame)
	if err != nil {
		return warning.Record{}, fmt.Errorf("duplicate check: %w", err)
	}
	if activeSame > 0 {
		return warning.Record{}, fmt.Errorf("%w: fellow %s level %s", ErrDuplicateActiveWarning, rec.FellowID, rec.Level)
	}

	if rec.Level == warning.LevelFinal {
		var issuedFirst int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM warnings WHERE fellow_id = ? AND level = 'first' AND status IN ('issued', 'acknowledged')`,
			rec.FellowID).Scan(&issuedFirst)
		if err != nil {
			return warning.Record{}, fmt.Errorf("escalation order check: %w", err)
		}
		if issuedFirst == 0 {
			return warning.Record{}, fmt.Errorf("%w: fellow %s", ErrEscalationOrder, rec.FellowID)
		}
	}

	rec.ID = uuid.NewString()
	rec.Status = warning.StatusDrafted
	rec.Outcome = warning.OutcomePending
	rec.CreatedAt = s.now()

	concerns, err := json.Marshal(rec.Concerns)
	if err != nil {
		return warning.Record{}, fmt.Errorf("encode concerns: %w", err)
	}
	requirements, err := json.Marshal(rec.Requirements)
	if err != nil {
		return warning.Record{}, fmt.Errorf("encode requirements: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO warnings (id, fellow_id, level, concerns, requirements, draft_message, status, outcome, review_deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FellowID, string(rec.Level), string(concerns), string(requirements),
		rec.DraftMessage, string(rec.Status), string(rec.Outcome),
		nullTime(rec.ReviewDeadline), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return warning.Record{}, fmt.Errorf("insert draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return warning.Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (warning.Record, error) {
	row := s.db.QueryRowContext(ctx, selectWarning+` WHERE id = ?`, id)
	rec, err := scanWarning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return warning.Record{}, fmt.Errorf("%w: warning %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *SQLiteStore) HistoryByFellow(ctx context.Context, fellowID string) ([]warning.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectWarning+` WHERE fellow_id = ? ORDER BY created_at DESC`, fellowID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanWarnings(rows)
}

func (s *SQLiteStore) Issue(ctx context.Context, id, finalMessage, issuedBy string) (warning.Record, error) {
	return s.transition(ctx, id, warning.StatusIssued, func(rec *warning.Record) {
		rec.FinalMessage = finalMessage
		rec.IssuedBy = issuedBy
		rec.IssuedAt = s.now()
	})
}

func (s *SQLiteStore) Acknowledge(ctx context.Context, id string) (warning.Record, error) {
	return s.transition(ctx, id, warning.StatusAcknowledged, func(rec *warning.Record) {
		rec.AcknowledgedAt = s.now()
	})
}

func (s *SQLiteStore) transition(ctx context.Context, id string, to warning.Status, apply func(*warning.Record)) (warning.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return warning.Record{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectWarning+` WHERE id = ?`, id)
	rec, err := scanWarning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return warning.Record{}, fmt.Errorf("%w: warning %s", ErrNotFound, id)
	}
	if err != nil {
		return warning.Record{}, err
	}

	if err := warning.Transition(rec.Status, to); err != nil {
		metrics.RecordTransitionViolation()
		return warning.Record{}, err
	}

	rec.Status = to
	apply(&rec)

	_, err = tx.ExecContext(ctx,
		`UPDATE warnings SET status = ?, final_message = ?, issued_by = ?, issued_at = ?, acknowledged_at = ? WHERE id = ?`,
		string(rec.Status), rec.FinalMessage, rec.IssuedBy,
		nullTime(rec.IssuedAt), nullTime(rec.AcknowledgedAt), id)
	if err != nil {
		return warning.Record{}, fmt.Errorf("update warning: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return warning.Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) CountIssued(ctx context.Context, fellowID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM warnings WHERE fellow_id = ? AND status IN ('issued', 'acknowledged')`,
		fellowID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count issued: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) ListByStatus(ctx context.Context, status warning.Status) ([]warning.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectWarning+` WHERE status = ? ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return scanWarnings(rows)
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a Assessment) (Assessment, error) {
	if a.FellowID == "" {
		return Assessment{}, fmt.Errorf("%w: empty fellow id", ErrNotFound)
	}

	a.ID = uuid.NewString()
	a.CreatedAt = s.now()

	contributions, err := json.Marshal(a.Contributions)
	if err != nil {
		return Assessment{}, fmt.Errorf("encode contributions: %w", err)
	}
	concerns, err := json.Marshal(a.Concerns)
	if err != nil {
		return Assessment{}, fmt.Errorf("encode concerns: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, fellow_id, week, score, tier, contributions, concerns, recommended_action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FellowID, a.Week, a.Score, a.Tier.String(),
		string(contributions), string(concerns), a.RecommendedAction,
		a.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Assessment{}, fmt.Errorf("insert assessment: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) LatestByFellow(ctx context.Context, fellowID string) (Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		selectAssessment+` WHERE fellow_id = ? ORDER BY week DESC, created_at DESC LIMIT 1`, fellowID)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, fmt.Errorf("%w: no assessments for fellow %s", ErrNotFound, fellowID)
	}
	return a, err
}

func (s *SQLiteStore) RecentScores(ctx context.Context, fellowID string, fromWeek, beforeWeek int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score FROM assessments WHERE fellow_id = ? AND week >= ? AND week < ? ORDER BY week DESC`,
		fellowID, fromWeek, beforeWeek)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CohortSummary(ctx context.Context) (map[tier.Tier]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.tier, COUNT(*) FROM assessments a
		JOIN (
			SELECT fellow_id, MAX(week) AS max_week FROM assessments GROUP BY fellow_id
		) latest ON a.fellow_id = latest.fellow_id AND a.week = latest.max_week
		GROUP BY a.tier`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[tier.Tier]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		t, err := tier.ParseTier(name)
		if err != nil {
			return nil, err
		}
		summary[t] = count
	}
	return summary, rows.Err()
}

const selectWarning = `SELECT id, fellow_id, level, concerns, requirements, draft_message, final_message, status, outcome, review_deadline, created_at, issued_at, issued_by, acknowledged_at FROM warnings`

const selectAssessment = `SELECT id, fellow_id, week, score, tier, contributions, concerns, recommended_action, created_at FROM assessments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWarning(row rowScanner) (warning.Record, error) {
	var (
		rec                     warning.Record
		level, status, outcome  string
		concerns, requirements  string
		createdAt               string
		deadline, issued, acked sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.FellowID, &level, &concerns, &requirements,
		&rec.DraftMessage, &rec.FinalMessage, &status, &outcome,
		&deadline, &createdAt, &issued, &rec.IssuedBy, &acked)
	if err != nil {
		return warning.Record{}, err
	}

	rec.Level = warning.Level(level)
	rec.Status = warning.Status(status)
	rec.Outcome = warning.Outcome(outcome)

	if err := json.Unmarshal([]byte(concerns), &rec.Concerns); err != nil {
		return warning.Record{}, fmt.Errorf("decode concerns: %w", err)
	}
	if err := json.Unmarshal([]byte(requirements), &rec.Requirements); err != nil {
		return warning.Record{}, fmt.Errorf("decode requirements: %w", err)
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return warning.Record{}, fmt.Errorf("decode created_at: %w", err)
	}
	if rec.ReviewDeadline, err = parseNullTime(deadline); err != nil {
		return warning.Record{}, fmt.Errorf("decode review_deadline: %w", err)
	}
	if rec.IssuedAt, err = parseNullTime(issued); err != nil {
		return warning.Record{}, fmt.Errorf("decode issued_at: %w", err)
	}
	if rec.AcknowledgedAt, err = parseNullTime(acked); err != nil {
		return warning.Record{}, fmt.Errorf("decode acknowledged_at: %w", err)
	}
	return rec, nil
}

func scanWarnings(rows *sql.Rows) ([]warning.Record, error) {
	var out []warning.Record
	for rows.Next() {
		rec, err := scanWarning(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAssessment(row rowScanner) (Assessment, error) {
	var (
		a                       Assessment
		tierName, createdAt     string
		contributions, concerns string
	)
	err := row.Scan(&a.ID, &a.FellowID, &a.Week, &a.Score, &tierName,
		&contributions, &concerns, &a.RecommendedAction, &createdAt)
	if err != nil {
		return Assessment{}, err
	}

	if a.Tier, err = tier.ParseTier(tierName); err != nil {
		return Assessment{}, err
	}
	if err := json.Unmarshal([]byte(contributions), &a.Contributions); err != nil {
		return Assessment{}, fmt.Errorf("decode contributions: %w", err)
	}
	if err := json.Unmarshal([]byte(concerns), &a.Concerns); err != nil {
		return Assessment{}, fmt.Errorf("decode concerns: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Assessment{}, fmt.Errorf("decode created_at: %w", err)
	}
	return a, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseNullTime(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v.String)
}
