package handler

import (
	"net/http"

	"github.com/fixmycity/fixmycity/internal/service"
)

// Deps are the services the routes are built on.
type Deps struct {
	Tokens        *service.ClientTokens
	Sessions      *service.Sessions
	Notifications *service.NotificationCenter
	Issues        *service.IssueService
	// AuthLimiter throttles credential and code submissions per remote address.
	AuthLimiter  *service.TokenBucket
	CookieSecure bool
	DemoMode     bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	authAPI := NewAuthHandler()
	notifications := NewNotificationHandler(d.Notifications)
	issuesAPI := NewIssueHandler(d.Issues)
	pages := NewPageHandler(d.Issues, d.Notifications, d.DemoMode)

	client := func(h http.HandlerFunc) http.Handler {
		return ClientIdentity(d.Tokens, d.Sessions, d.CookieSecure, h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimit(d.AuthLimiter, client(h))
	}
	signedIn := func(h http.HandlerFunc) http.Handler {
		return client(RequireSession(h).ServeHTTP)
	}
	signedInPage := func(h http.HandlerFunc) http.Handler {
		return client(RequirePageSession(h).ServeHTTP)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// JSON API.
	mux.Handle("GET /api/session", client(authAPI.HandleSession))
	mux.Handle("POST /api/auth/login", limited(authAPI.HandleLogin))
	mux.Handle("POST /api/auth/register", limited(authAPI.HandleRegister))
	mux.Handle("POST /api/auth/verify", limited(authAPI.HandleVerify))
	mux.Handle("POST /api/auth/resend", limited(authAPI.HandleResend))
	mux.Handle("POST /api/auth/cancel", client(authAPI.HandleCancel))
	mux.Handle("POST /api/auth/guest", limited(authAPI.HandleGuest))
	mux.Handle("POST /api/auth/logout", client(authAPI.HandleLogout))
	mux.Handle("POST /api/session/role", client(authAPI.HandleSwitchRole))

	mux.Handle("GET /api/notifications", client(notifications.HandleList))
	mux.Handle("DELETE /api/notifications/{id}", client(notifications.HandleDismiss))

	mux.Handle("GET /api/issues", signedIn(issuesAPI.HandleList))
	mux.Handle("POST /api/issues", signedIn(issuesAPI.HandleReport))
	mux.Handle("POST /api/issues/{id}/upvote", signedIn(issuesAPI.HandleUpvote))
	mux.Handle("POST /api/issues/{id}/status", signedIn(issuesAPI.HandleUpdateStatus))
	mux.Handle("GET /api/dashboard/stats", signedIn(issuesAPI.HandleStats))

	// Pages.
	mux.Handle("GET /{$}", client(pages.HandleHome))
	mux.Handle("POST /login", limited(pages.HandleLogin))
	mux.Handle("POST /register", limited(pages.HandleRegister))
	mux.Handle("POST /guest", limited(pages.HandleGuest))
	mux.Handle("GET /verify", client(pages.HandleVerifyPage))
	mux.Handle("POST /verify", limited(pages.HandleVerify))
	mux.Handle("POST /verify/resend", limited(pages.HandleResend))
	mux.Handle("POST /verify/cancel", client(pages.HandleCancel))
	mux.Handle("GET /dashboard", client(pages.HandleDashboard))
	mux.Handle("POST /role", signedInPage(pages.HandleSwitchRole))
	mux.Handle("POST /logout", client(pages.HandleLogout))
	mux.Handle("POST /issues", signedInPage(pages.HandleReport))
	mux.Handle("POST /issues/{id}/upvote", signedInPage(pages.HandleUpvote))
	mux.Handle("POST /issues/{id}/status", signedInPage(pages.HandleUpdateStatus))
	mux.Handle("GET /notifications/stream", client(notifications.HandleStream))
}
