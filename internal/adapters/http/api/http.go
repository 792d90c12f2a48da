// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/vigil/internal/adapters/collector"
	"github.com/okian/vigil/internal/adapters/repository"
	service "github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// EvaluateFellow runs one evaluation and returns the stored
	// assessment. Duplicate fellow+week submissions are idempotent.
	EvaluateFellow(ctx context.Context, fellowID string, week int) (repository.Assessment, error)

	// Warning lifecycle entry points.
	Issue(ctx context.Context, warningID, finalMessage, issuedBy string) (warning.Record, error)
	Acknowledge(ctx context.Context, warningID string) (warning.Record, error)

	// Read operations.
	GetWarning(ctx context.Context, warningID string) (warning.Record, error)
	WarningsByFellow(ctx context.Context, fellowID string) ([]warning.Record, error)
	WarningsByStatus(ctx context.Context, status warning.Status) ([]warning.Record, error)
	LatestAssessment(ctx context.Context, fellowID string) (repository.Assessment, error)
	Dashboard(ctx context.Context) (map[tier.Tier]int, error)
	GetStats(ctx context.Context) (service.Stats, error)
}

// Server wires HTTP routes for the risk engine API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	evaluationsHandler *EvaluationsHandler
	assessmentsHandler *AssessmentsHandler
	warningsHandler    *WarningsHandler
	dashboardHandler   *DashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps),
		assessmentsHandler: NewAssessmentsHandler(deps),
		warningsHandler:    NewWarningsHandler(deps),
		dashboardHandler:   NewDashboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("/evaluations", MetricsMiddleware(s.evaluationsHandler.HandlePostEvaluation, "evaluations"))
	mux.HandleFunc("/assessments/", MetricsMiddleware(s.assessmentsHandler.HandleGetAssessment, "assessments"))
	mux.HandleFunc("/warnings", MetricsMiddleware(s.warningsHandler.HandleListWarnings, "warnings"))
	mux.HandleFunc("/warnings/", MetricsMiddleware(s.warningsHandler.HandleWarning, "warnings"))
}

// assessmentResponse mirrors the wire shape of one stored assessment.
type assessmentResponse struct {
	ID                string             `json:"id"`
	FellowID          string             `json:"fellow_id"`
	Week              int                `json:"week"`
	Score             float64            `json:"score"`
	Tier              string             `json:"tier"`
	Contributions     map[string]float64 `json:"contributions"`
	Concerns          []string           `json:"concerns"`
	RecommendedAction string             `json:"recommended_action"`
	CreatedAt         time.Time          `json:"created_at"`
}

func toAssessmentResponse(a repository.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:                a.ID,
		FellowID:          a.FellowID,
		Week:              a.Week,
		Score:             a.Score,
		Tier:              a.Tier.String(),
		Contributions:     a.Contributions,
		Concerns:          a.Concerns,
		RecommendedAction: a.RecommendedAction,
		CreatedAt:         a.CreatedAt,
	}
}

// warningResponse mirrors the wire shape of one warning record.
type warningResponse struct {
	ID             string     `json:"id"`
	FellowID       string     `json:"fellow_id"`
	Level          string     `json:"level"`
	Status         string     `json:"status"`
	Outcome        string     `json:"outcome"`
	Concerns       []string   `json:"concerns"`
	Requirements   []string   `json:"requirements"`
	DraftMessage   string     `json:"draft_message"`
	FinalMessage   string     `json:"final_message,omitempty"`
	ReviewDeadline time.Time  `json:"review_deadline"`
	CreatedAt      time.Time  `json:"created_at"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	IssuedBy       string     `json:"issued_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

func toWarningResponse(rec warning.Record) warningResponse {
	resp := warningResponse{
		ID:             rec.ID,
		FellowID:       rec.FellowID,
		Level:          string(rec.Level),
		Status:         string(rec.Status),
		Outcome:        string(rec.Outcome),
		Concerns:       rec.Concerns,
		Requirements:   rec.Requirements,
		DraftMessage:   rec.DraftMessage,
		FinalMessage:   rec.FinalMessage,
		ReviewDeadline: rec.ReviewDeadline,
		CreatedAt:      rec.CreatedAt,
		IssuedBy:       rec.IssuedBy,
	}
	if !rec.IssuedAt.IsZero() {
		t := rec.IssuedAt
		resp.IssuedAt = &t
	}
	if !rec.AcknowledgedAt.IsZero() {
		t := rec.AcknowledgedAt
		resp.AcknowledgedAt = &t
	}
	return resp
}

func toWarningResponses(recs []warning.Record) []warningResponse {
	out := make([]warningResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toWarningResponse(rec))
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates engine errors into HTTP responses. Stale
// lifecycle submissions map to 409 so reviewers know to refresh.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, warning.ErrInvalidTransition),
		errors.Is(err, repository.ErrDuplicateActiveWarning),
		errors.Is(err, repository.ErrEscalationOrder):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, collector.ErrDataUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "data_unavailable", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathParam extracts the single path segment after prefix, rejecting
// nested paths.
func pathParam(path, prefix string) (string, bool) {
	p := strings.TrimPrefix(path, prefix)
	if p == "" || strings.Contains(p, "/") {
		return "", false
	}
	return p, true
}
