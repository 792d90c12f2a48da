// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// evaluationRequest mirrors the wire schema for POST /evaluations.
type evaluationRequest struct {
	FellowID string `json:"fellow_id"`
	Week     int    `json:"week"`
}

func (e evaluationRequest) validate() error {
	if strings.TrimSpace(e.FellowID) == "" {
		return errors.New("missing fellow_id")
	}
	if e.Week < 0 {
		return errors.New("week must be non-negative")
	}
	return nil
}

// EvaluationsHandler handles evaluation requests.
type EvaluationsHandler struct {
	deps Dependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps Dependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandlePostEvaluation handles POST /evaluations requests.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	assessment, err := h.deps.EvaluateFellow(r.Context(), req.FellowID, req.Week)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssessmentResponse(assessment))
}
