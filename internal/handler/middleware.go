package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/fixmycity/fixmycity/internal/service"
)

const clientCookieName = "fixmycity_client"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the SessionManager of the requesting client.
// Returns nil outside ClientIdentity.
func SessionFromContext(ctx context.Context) *service.SessionManager {
	m, _ := ctx.Value(sessionContextKey).(*service.SessionManager)
	return m
}

// ClientIdentity resolves the browser client from its signed cookie and injects
// the client's SessionManager into the request context. A missing or invalid
// cookie is replaced with a freshly minted client, which starts anonymous.
func ClientIdentity(tokens *service.ClientTokens, sessions *service.Sessions, cookieSecure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, err := clientFromCookie(r, tokens)
		if err != nil {
			var token string
			clientID, token, err = tokens.NewClient()
			if err != nil {
				slog.Error("mint client", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			setClientCookie(w, token, cookieSecure)
		}

		m, err := sessions.Get(r.Context(), clientID)
		if err != nil {
			slog.Error("load client session", "client", clientID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects API requests from clients that are not signed in.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := SessionFromContext(r.Context())
		if m == nil || m.Current() == nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePageSession sends clients that are not signed in back to the sign-in page.
func RequirePageSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := SessionFromContext(r.Context())
		if m == nil || m.Current() == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit allows each remote address a bounded number of requests.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(remoteIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		// Datastar evaluates its attribute expressions, hence unsafe-eval.
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-eval' https://cdn.jsdelivr.net; "+
				"style-src 'self' 'unsafe-inline'; img-src 'self' https: data:")
		next.ServeHTTP(w, r)
	})
}

func clientFromCookie(r *http.Request, tokens *service.ClientTokens) (string, error) {
	cookie, err := r.Cookie(clientCookieName)
	if err != nil {
		return "", err
	}
	return tokens.Verify(cookie.Value)
}

func setClientCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(service.ClientTokenTTL.Seconds()),
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
