package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/fixmycity/fixmycity/internal/service"
	"github.com/fixmycity/fixmycity/internal/view"
)

// PageHandler serves the server-rendered sign-in flow and dashboard. Forms
// post back here and redirect on success.
type PageHandler struct {
	issues   *service.IssueService
	center   *service.NotificationCenter
	demoMode bool
	now      func() time.Time
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(issues *service.IssueService, center *service.NotificationCenter, demoMode bool) *PageHandler {
	return &PageHandler{issues: issues, center: center, demoMode: demoMode, now: time.Now}
}

// HandleHome shows the sign-in page, or forwards a client that is already
// mid-attempt or signed in.
// GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	switch m.Snapshot().State {
	case domain.StateAuthenticated:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	case domain.StateAwaitingVerification:
		http.Redirect(w, r, "/verify", http.StatusSeeOther)
		return
	}

	data := view.LoginData{Mode: r.URL.Query().Get("mode"), Role: domain.RoleCitizen, DemoMode: h.demoMode}
	remembered, err := m.Remembered(r.Context())
	if err != nil {
		slog.Warn("load remembered login", "client", m.ClientID(), "error", err)
	}
	if remembered != nil {
		data.Email = remembered.Email
		data.Role = remembered.Role
	}
	renderPage(w, r, http.StatusOK, view.LoginPage(data))
}

// HandleLogin starts a login attempt from the sign-in form.
// POST /login
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email, password := r.FormValue("email"), r.FormValue("password")
	role, _ := domain.ParseRole(r.FormValue("role"))

	err := SessionFromContext(r.Context()).SubmitCredentials(r.Context(), email, password, role)
	if err != nil {
		h.loginError(w, r, view.LoginData{Email: email, Role: role}, "submit credentials", err)
		return
	}
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
}

// HandleRegister starts a signup attempt from the registration form.
// POST /register
func (h *PageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	role, _ := domain.ParseRole(r.FormValue("role"))
	reg := domain.Registration{
		Name:   r.FormValue("name"),
		Email:  r.FormValue("email"),
		Secret: r.FormValue("password"),
		Role:   role,
	}

	if err := SessionFromContext(r.Context()).SubmitRegistration(r.Context(), reg); err != nil {
		h.loginError(w, r, view.LoginData{Mode: "register", Name: reg.Name, Email: reg.Email, Role: role}, "submit registration", err)
		return
	}
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
}

// HandleGuest signs the client in as a guest.
// POST /guest
func (h *PageHandler) HandleGuest(w http.ResponseWriter, r *http.Request) {
	if err := SessionFromContext(r.Context()).ContinueAsGuest(r.Context()); err != nil {
		h.loginError(w, r, view.LoginData{Role: domain.RoleCitizen}, "guest login", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleVerifyPage shows the one-time code form.
// GET /verify
func (h *PageHandler) HandleVerifyPage(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	if m.Snapshot().State != domain.StateAwaitingVerification {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderPage(w, r, http.StatusOK, view.VerifyPage(h.verifyData(m, "")))
}

// HandleVerify completes the attempt with the submitted code.
// POST /verify
func (h *PageHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	err := m.SubmitCode(r.Context(), r.FormValue("code"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, domain.ErrDuplicateEmail):
		// The attempt was dropped; start over from the registration form.
		h.loginError(w, r, view.LoginData{Mode: "register", Role: domain.RoleCitizen}, "submit code", err)
	case errors.Is(err, domain.ErrInvalidState):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		h.verifyError(w, r, m, "submit code", err)
	}
}

// HandleResend issues a fresh code.
// POST /verify/resend
func (h *PageHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	if err := m.Resend(r.Context()); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.verifyError(w, r, m, "resend code", err)
		return
	}
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
}

// HandleCancel abandons the attempt.
// POST /verify/cancel
func (h *PageHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	// Nothing to cancel is as good as cancelled.
	_ = SessionFromContext(r.Context()).Cancel(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDashboard shows the signed-in dashboard.
// GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	record := m.Current()
	if record == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderDashboard(w, r, *record, http.StatusOK, "")
}

// HandleSwitchRole changes the active role.
// POST /role
func (h *PageHandler) HandleSwitchRole(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	role, _ := domain.ParseRole(r.FormValue("role"))
	if err := m.SwitchRole(r.Context(), role); err != nil {
		h.dashboardError(w, r, m, "switch role", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogout ends the session.
// POST /logout
func (h *PageHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	// Logging out twice lands on the sign-in page either way.
	_ = SessionFromContext(r.Context()).Logout(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleReport files an issue from the dashboard form.
// POST /issues
func (h *PageHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	severity, _ := strconv.Atoi(r.FormValue("severity"))
	in := service.ReportInput{
		Category:      domain.IssueCategory(r.FormValue("category")),
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Severity:      severity,
		TrafficImpact: domain.TrafficImpact(r.FormValue("trafficImpact")),
	}
	if _, err := h.issues.Report(r.Context(), currentIdentity(r), in); err != nil {
		h.dashboardError(w, r, m, "report issue", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleUpvote upvotes an issue from the dashboard.
// POST /issues/{id}/upvote
func (h *PageHandler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	if _, err := h.issues.Upvote(r.Context(), r.PathValue("id")); err != nil {
		h.dashboardError(w, r, SessionFromContext(r.Context()), "upvote issue", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleUpdateStatus changes an issue's status from the dashboard.
// POST /issues/{id}/status
func (h *PageHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.IssueStatus(r.FormValue("status"))
	if err := h.issues.UpdateStatus(r.Context(), currentIdentity(r), r.PathValue("id"), status); err != nil {
		h.dashboardError(w, r, SessionFromContext(r.Context()), "update issue status", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *PageHandler) loginError(w http.ResponseWriter, r *http.Request, data view.LoginData, op string, err error) {
	status, message := pageError(op, err)
	data.Error = message
	data.DemoMode = h.demoMode
	renderPage(w, r, status, view.LoginPage(data))
}

func (h *PageHandler) verifyError(w http.ResponseWriter, r *http.Request, m *service.SessionManager, op string, err error) {
	status, message := pageError(op, err)
	renderPage(w, r, status, view.VerifyPage(h.verifyData(m, message)))
}

func (h *PageHandler) dashboardError(w http.ResponseWriter, r *http.Request, m *service.SessionManager, op string, err error) {
	record := m.Current()
	if record == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	status, message := pageError(op, err)
	h.renderDashboard(w, r, *record, status, message)
}

func (h *PageHandler) verifyData(m *service.SessionManager, message string) view.VerifyData {
	data := view.NewVerifyData(m.Snapshot(), h.now())
	data.Error = message
	data.DemoMode = h.demoMode
	data.Notifications = h.center.List(m.ClientID())
	return data
}

func (h *PageHandler) renderDashboard(w http.ResponseWriter, r *http.Request, record domain.SessionRecord, status int, message string) {
	issues, err := h.issues.List(r.Context(), domain.IssueFilter{})
	if err != nil {
		slog.Error("list issues", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var stats *service.IssueStats
	if record.Role == domain.RoleAuthority {
		stats, err = h.issues.Stats(r.Context())
		if err != nil {
			slog.Error("issue stats", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	m := SessionFromContext(r.Context())
	data := view.NewDashboardData(record, issues, stats, h.center.List(m.ClientID()))
	data.Error = message
	renderPage(w, r, status, view.DashboardPage(data))
}

// pageError maps err for display and logs unexpected ones.
func pageError(op string, err error) (int, string) {
	status, message := errorResponse(err)
	if status == http.StatusInternalServerError {
		slog.Error(op, "error", err)
	}
	return status, message
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render page", "path", r.URL.Path, "error", err)
	}
}
