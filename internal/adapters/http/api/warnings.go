// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/vigil/internal/domain/warning"
)

// issueRequest mirrors the wire schema for POST /warnings/{id}/issue.
type issueRequest struct {
	FinalMessage string `json:"final_message"`
	IssuedBy     string `json:"issued_by"`
}

func (i issueRequest) validate() error {
	if strings.TrimSpace(i.FinalMessage) == "" {
		return errors.New("missing final_message")
	}
	if strings.TrimSpace(i.IssuedBy) == "" {
		return errors.New("missing issued_by")
	}
	return nil
}

// WarningsHandler handles warning reads and lifecycle transitions.
type WarningsHandler struct {
	deps Dependencies
}

// NewWarningsHandler creates a new warnings handler.
func NewWarningsHandler(deps Dependencies) *WarningsHandler {
	return &WarningsHandler{deps: deps}
}

// HandleListWarnings handles GET /warnings requests filtered by
// ?fellow= or ?status=. Exactly one filter is required.
func (h *WarningsHandler) HandleListWarnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	fellowID := r.URL.Query().Get("fellow")
	statusName := r.URL.Query().Get("status")
	switch {
	case fellowID != "" && statusName == "":
		recs, err := h.deps.WarningsByFellow(r.Context(), fellowID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWarningResponses(recs))
	case statusName != "" && fellowID == "":
		status := warning.Status(statusName)
		switch status {
		case warning.StatusDrafted, warning.StatusIssued, warning.StatusAcknowledged:
		default:
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("unknown status"))
			return
		}
		recs, err := h.deps.WarningsByStatus(r.Context(), status)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWarningResponses(recs))
	default:
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("exactly one of fellow or status is required"))
	}
}

// HandleWarning dispatches GET /warnings/{id} and the lifecycle actions
// POST /warnings/{id}/issue and POST /warnings/{id}/acknowledge.
func (h *WarningsHandler) HandleWarning(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/warnings/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleGetWarning(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] == "issue":
		h.handleIssue(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] == "acknowledge":
		h.handleAcknowledge(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *WarningsHandler) handleGetWarning(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rec, err := h.deps.GetWarning(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWarningResponse(rec))
}

func (h *WarningsHandler) handleIssue(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rec, err := h.deps.Issue(r.Context(), id, req.FinalMessage, req.IssuedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWarningResponse(rec))
}

func (h *WarningsHandler) handleAcknowledge(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	rec, err := h.deps.Acknowledge(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWarningResponse(rec))
}
