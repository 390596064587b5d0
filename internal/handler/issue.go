package handler

import (
	"net/http"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/fixmycity/fixmycity/internal/service"
)

// IssueHandler exposes the issue feed and dashboard aggregates.
type IssueHandler struct {
	issues *service.IssueService
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(issues *service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// HandleList returns issues, newest first.
// GET /api/issues?status=OPEN&category=ROAD&mine=true
// Response: {"issues": [...]}
func (h *IssueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.IssueFilter{
		Status:   domain.IssueStatus(q.Get("status")),
		Category: domain.IssueCategory(q.Get("category")),
	}
	if q.Get("mine") == "true" {
		filter.ReporterID = currentIdentity(r).ID
	}

	issues, err := h.issues.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, "list issues", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": toIssueDTOs(issues)})
}

// HandleReport files a new issue.
// POST /api/issues
// Request:  {"category":"ROAD","title":"...","description":"...","severity":7,"trafficImpact":"HIGH","location":{...}}
// Response: 201 {"issue": {...}}
func (h *IssueHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category      string       `json:"category"`
		Department    string       `json:"department"`
		Title         string       `json:"title"`
		Description   string       `json:"description"`
		ImageURL      string       `json:"imageUrl"`
		Severity      int          `json:"severity"`
		TrafficImpact string       `json:"trafficImpact"`
		Location      *LocationDTO `json:"location"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	in := service.ReportInput{
		Category:      domain.IssueCategory(req.Category),
		Department:    req.Department,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Severity:      req.Severity,
		TrafficImpact: domain.TrafficImpact(req.TrafficImpact),
	}
	if req.Location != nil {
		loc := domain.Location(*req.Location)
		in.Location = &loc
	}

	issue, err := h.issues.Report(r.Context(), currentIdentity(r), in)
	if err != nil {
		writeServiceError(w, "report issue", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"issue": toIssueDTO(*issue)})
}

// HandleUpvote adds one upvote.
// POST /api/issues/{id}/upvote
// Response: {"upvotes": 43}
func (h *IssueHandler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	n, err := h.issues.Upvote(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "upvote issue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upvotes": n})
}

// HandleUpdateStatus moves an issue through triage.
// POST /api/issues/{id}/status
// Request:  {"status":"IN_PROGRESS"}
// Response: {"issue": {...}}
func (h *IssueHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	id := r.PathValue("id")
	if err := h.issues.UpdateStatus(r.Context(), currentIdentity(r), id, domain.IssueStatus(req.Status)); err != nil {
		writeServiceError(w, "update issue status", err)
		return
	}
	issue, err := h.issues.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get issue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": toIssueDTO(*issue)})
}

// HandleStats returns the dashboard aggregates.
// GET /api/dashboard/stats
// Response: {"total":9,"byStatus":{...},...}
func (h *IssueHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.issues.Stats(r.Context())
	if err != nil {
		writeServiceError(w, "issue stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// currentIdentity returns the signed-in identity acting in its active role.
// Routes using it sit behind RequireSession.
func currentIdentity(r *http.Request) domain.Identity {
	record := SessionFromContext(r.Context()).Current()
	if record == nil {
		return domain.Identity{}
	}
	identity := record.Identity
	identity.Role = record.Role
	return identity
}
