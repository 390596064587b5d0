package handler

import (
	"net/http"

	"github.com/fixmycity/fixmycity/internal/domain"
)

// AuthHandler exposes the client's session lifecycle as a JSON API.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// HandleSession returns the client's current session.
// GET /api/session
// Response: {"state":"...","user":{...},"remembered":{...}}
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())

	remembered, err := m.Remembered(r.Context())
	if err != nil {
		writeServiceError(w, "load remembered login", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(m.Snapshot(), remembered))
}

// HandleLogin starts a login attempt.
// POST /api/auth/login
// Request:  {"email":"...","password":"...","role":"CITIZEN"}
// Response: 202 {"state":"AWAITING_VERIFICATION",...}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	m := SessionFromContext(r.Context())
	role, _ := domain.ParseRole(req.Role)
	if err := m.SubmitCredentials(r.Context(), req.Email, req.Password, role); err != nil {
		writeServiceError(w, "submit credentials", err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSessionDTO(m.Snapshot(), nil))
}

// HandleRegister starts a signup attempt.
// POST /api/auth/register
// Request:  {"name":"...","email":"...","password":"...","role":"CITIZEN"}
// Response: 202 {"state":"AWAITING_VERIFICATION",...}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	m := SessionFromContext(r.Context())
	role, _ := domain.ParseRole(req.Role)
	err := m.SubmitRegistration(r.Context(), domain.Registration{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Password,
		Role:   role,
	})
	if err != nil {
		writeServiceError(w, "submit registration", err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSessionDTO(m.Snapshot(), nil))
}

// HandleVerify completes the pending attempt with the one-time code.
// POST /api/auth/verify
// Request:  {"code":"123456"}
// Response: {"user": {...}}
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	m := SessionFromContext(r.Context())
	if err := m.SubmitCode(r.Context(), req.Code); err != nil {
		writeServiceError(w, "submit code", err)
		return
	}
	writeCurrentUser(w, m.Current())
}

// HandleResend issues a fresh code for the pending attempt.
// POST /api/auth/resend
// Response: 202 {"state":"AWAITING_VERIFICATION","resendAfter":"..."}
func (h *AuthHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	if err := m.Resend(r.Context()); err != nil {
		writeServiceError(w, "resend code", err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSessionDTO(m.Snapshot(), nil))
}

// HandleCancel abandons the pending attempt.
// POST /api/auth/cancel
// Response: 204 No Content
func (h *AuthHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if err := SessionFromContext(r.Context()).Cancel(r.Context()); err != nil {
		writeServiceError(w, "cancel attempt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGuest signs the client in as a guest citizen.
// POST /api/auth/guest
// Response: {"user": {...}}
func (h *AuthHandler) HandleGuest(w http.ResponseWriter, r *http.Request) {
	m := SessionFromContext(r.Context())
	if err := m.ContinueAsGuest(r.Context()); err != nil {
		writeServiceError(w, "guest login", err)
		return
	}
	writeCurrentUser(w, m.Current())
}

// HandleLogout ends the session.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := SessionFromContext(r.Context()).Logout(r.Context()); err != nil {
		writeServiceError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSwitchRole changes the active role of the session.
// POST /api/session/role
// Request:  {"role":"AUTHORITY"}
// Response: {"user": {...}}
func (h *AuthHandler) HandleSwitchRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	m := SessionFromContext(r.Context())
	role, _ := domain.ParseRole(req.Role)
	if err := m.SwitchRole(r.Context(), role); err != nil {
		writeServiceError(w, "switch role", err)
		return
	}
	writeCurrentUser(w, m.Current())
}

func writeCurrentUser(w http.ResponseWriter, record *domain.SessionRecord) {
	if record == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	identity := record.Identity
	identity.Role = record.Role
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  toIdentityDTO(identity),
		"guest": record.Guest,
	})
}
