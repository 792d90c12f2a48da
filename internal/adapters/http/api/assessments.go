// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// AssessmentsHandler handles assessment read requests.
type AssessmentsHandler struct {
	deps Dependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps Dependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

// HandleGetAssessment handles GET /assessments/{fellow_id} requests,
// returning the fellow's latest assessment.
func (h *AssessmentsHandler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	fellowID, ok := pathParam(r.URL.Path, "/assessments/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	assessment, err := h.deps.LatestAssessment(r.Context(), fellowID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssessmentResponse(assessment))
}
