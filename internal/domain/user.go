package domain

import "strings"

// Role selects which side of the platform an identity acts on.
type Role string

const (
	RoleCitizen   Role = "CITIZEN"
	RoleAuthority Role = "AUTHORITY"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleAuthority
}

// ParseRole accepts the role name in any letter case.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Identity is a registered user of the platform.
type Identity struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SecretHash string `json:"secretHash,omitempty"`
	Role       Role   `json:"role"`
	Reputation int    `json:"reputation"`
	Avatar     string `json:"avatar"`
	Followers  int    `json:"followers,omitempty"`
	Following  int    `json:"following,omitempty"`
}

// SameEmail reports whether the identity is keyed by the given email.
// Emails compare case-insensitively.
func (i Identity) SameEmail(email string) bool {
	return strings.EqualFold(i.Email, email)
}

// Public returns a copy of the identity with the credential hash removed.
func (i Identity) Public() Identity {
	i.SecretHash = ""
	return i
}

// Roster is the ordered collection of all registered identities.
// No two entries share a case-insensitive email.
type Roster []Identity

// Find returns the index of the identity with the given email, or -1.
func (r Roster) Find(email string) int {
	for i := range r {
		if r[i].SameEmail(email) {
			return i
		}
	}
	return -1
}

// Registration carries the fields a visitor submits to sign up.
type Registration struct {
	Name   string
	Email  string
	Secret string
	Role   Role
}
