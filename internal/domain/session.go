package domain

import "time"

// SessionState is a position in the authentication lifecycle of one client.
type SessionState string

const (
	StateAnonymous            SessionState = "ANONYMOUS"
	StateAwaitingVerification SessionState = "AWAITING_VERIFICATION"
	StateAuthenticated        SessionState = "AUTHENTICATED"
)

// Challenge is the one-time code gating completion of a login or signup attempt.
// It lives only in memory for the duration of the attempt.
type Challenge struct {
	Code          string
	IssuedAt      time.Time
	ResendAfter   time.Time
	Pending       Identity
	NewRegistrant bool
}

// SessionRecord is the persisted form of an authenticated session.
// The identity copy never carries the credential hash.
type SessionRecord struct {
	Identity      Identity  `json:"identity"`
	Role          Role      `json:"role"`
	EstablishedAt time.Time `json:"establishedAt"`
	Guest         bool      `json:"guest,omitempty"`
}

// RememberedLogin pre-fills the login form on the next visit.
type RememberedLogin struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// SessionSnapshot is a read-only view of a client's session for the UI.
type SessionSnapshot struct {
	State        SessionState
	Identity     *Identity
	PendingEmail string
	ResendAfter  time.Time
	Guest        bool
}
