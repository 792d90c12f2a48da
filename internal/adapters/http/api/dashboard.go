// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// dashboardResponse counts fellows by the tier of their latest
// assessment.
type dashboardResponse struct {
	Tiers map[string]int `json:"tiers"`
	Total int            `json:"total"`
}

// DashboardHandler serves the cohort risk overview.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleDashboard handles GET /dashboard requests.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summary, err := h.deps.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := dashboardResponse{Tiers: make(map[string]int, len(summary))}
	for t, n := range summary {
		resp.Tiers[t.String()] = n
		resp.Total += n
	}
	writeJSON(w, http.StatusOK, resp)
}
