package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/google/uuid"
)

const (
	sessionKeyPrefix  = "fixmycity_active_session/"
	rememberKeyPrefix = "fixmycity_remembered_creds/"

	// bcrypt ignores input past 72 bytes; longer secrets are rejected instead.
	maxSecretLen = 72
)

// SessionKey is the record holding the persisted session of a client.
func SessionKey(clientID string) string { return sessionKeyPrefix + clientID }

// RememberKey is the record holding the remembered login of a client.
func RememberKey(clientID string) string { return rememberKeyPrefix + clientID }

// SessionDeps are the collaborators shared by every SessionManager.
type SessionDeps struct {
	Directory *Directory
	Issuer    CodeIssuer
	Store     domain.RecordStore
	Notifier  domain.Notifier

	// Latency is waited before each submission to mimic a remote round trip.
	Latency time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// SessionManager drives the authentication lifecycle of a single client:
// ANONYMOUS -> AWAITING_VERIFICATION -> AUTHENTICATED and back. The pending
// challenge lives only in memory; the established session is persisted.
type SessionManager struct {
	clientID string
	deps     SessionDeps

	mu        sync.Mutex
	state     domain.SessionState
	session   *domain.SessionRecord
	challenge *domain.Challenge
}

// NewSessionManager creates an anonymous SessionManager for the client.
// Call Restore to pick up a persisted session.
func NewSessionManager(clientID string, deps SessionDeps) *SessionManager {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SessionManager{
		clientID: clientID,
		deps:     deps,
		state:    domain.StateAnonymous,
	}
}

// ClientID returns the client this manager belongs to.
func (m *SessionManager) ClientID() string { return m.clientID }

// Restore loads the persisted session, if any, and moves straight to
// AUTHENTICATED without re-checking credentials. An unreadable record is
// discarded and the client stays anonymous.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.deps.Store.Load(ctx, SessionKey(m.clientID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			m.reset()
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}

	var record domain.SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil || !record.Role.Valid() {
		slog.Warn("discarding unreadable session", "client", m.clientID,
			"error", fmt.Errorf("%w: %v", domain.ErrStoreCorrupted, err))
		if err := m.deps.Store.Delete(ctx, SessionKey(m.clientID)); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		m.reset()
		return nil
	}

	m.session = &record
	m.challenge = nil
	m.state = domain.StateAuthenticated
	slog.Debug("session restored", "client", m.clientID, "identity", record.Identity.ID)
	return nil
}

// SubmitCredentials starts a login attempt. The identity must exist, the
// secret must match, and the stored role must equal the requested role.
func (m *SessionManager) SubmitCredentials(ctx context.Context, email, secret string, role domain.Role) error {
	email = strings.TrimSpace(email)
	if email == "" || secret == "" {
		return fmt.Errorf("%w: email and password are required", domain.ErrValidationFailed)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidationFailed, role)
	}
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAnonymous {
		return fmt.Errorf("%w: login requires an anonymous session", domain.ErrInvalidState)
	}

	identity, err := m.deps.Directory.Validate(ctx, email, secret)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return err
		}
		return fmt.Errorf("validate credentials: %w", err)
	}
	if identity.Role != role {
		return fmt.Errorf("%w: this account is registered as %s", domain.ErrRoleMismatch, identity.Role)
	}

	m.remember(ctx, identity.Email, role)

	code, err := m.openChallenge(identity.Public(), false)
	if err != nil {
		return err
	}
	m.notify(ctx, "Identity Verification",
		fmt.Sprintf("FixMyCity OTP for %s: %s.", identity.Name, code), domain.NotifyInfo)
	slog.Info("login challenge issued", "client", m.clientID, "identity", identity.ID)
	return nil
}

// SubmitRegistration starts a signup attempt. The new identity is held with
// the challenge and only written to the roster once the code is verified.
func (m *SessionManager) SubmitRegistration(ctx context.Context, reg domain.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	email, err := validateRegistration(reg)
	if err != nil {
		return err
	}
	reg.Email = email
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAnonymous {
		return fmt.Errorf("%w: registration requires an anonymous session", domain.ErrInvalidState)
	}

	if _, err := m.deps.Directory.FindByEmail(ctx, reg.Email); err == nil {
		return domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	hash, err := m.deps.Directory.HashSecret(reg.Secret)
	if err != nil {
		return err
	}
	identity := domain.Identity{
		ID:         newIdentityID(reg.Role),
		Name:       reg.Name,
		Email:      reg.Email,
		SecretHash: hash,
		Role:       reg.Role,
		Avatar:     "https://i.pravatar.cc/150?u=" + reg.Email,
	}

	m.remember(ctx, identity.Email, identity.Role)

	code, err := m.openChallenge(identity, true)
	if err != nil {
		return err
	}
	title := "Welcome to Solapur"
	if reg.Role == domain.RoleAuthority {
		title = "Municipal Onboarding"
	}
	m.notify(ctx, title, fmt.Sprintf("Verification code for your new account: %s.", code), domain.NotifyInfo)
	slog.Info("signup challenge issued", "client", m.clientID, "role", reg.Role)
	return nil
}

// SubmitCode completes the pending attempt. A new registrant is written to
// the roster here; if the email was claimed in the meantime the attempt is
// dropped with ErrDuplicateEmail.
func (m *SessionManager) SubmitCode(ctx context.Context, code string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAwaitingVerification {
		return fmt.Errorf("%w: no verification in progress", domain.ErrInvalidState)
	}
	if !m.deps.Issuer.Check(code, m.challenge.Code) {
		return domain.ErrCodeMismatch
	}

	identity := m.challenge.Pending
	if m.challenge.NewRegistrant {
		created, err := m.deps.Directory.Create(ctx, identity)
		if err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		if !created {
			m.reset()
			return domain.ErrDuplicateEmail
		}
		m.challenge.NewRegistrant = false
	}

	record := domain.SessionRecord{
		Identity:      identity.Public(),
		Role:          identity.Role,
		EstablishedAt: m.deps.Now().UTC(),
	}
	if err := m.persist(ctx, record); err != nil {
		return err
	}
	m.session = &record
	m.challenge = nil
	m.state = domain.StateAuthenticated

	m.notify(ctx, "Session Established",
		fmt.Sprintf("Successfully authenticated as %s. Session saved for direct access.", identity.Name),
		domain.NotifySuccess)
	slog.Info("session established", "client", m.clientID, "identity", identity.ID, "role", identity.Role)
	return nil
}

// Resend replaces the pending code once the cooldown has passed. The old code
// stops working.
func (m *SessionManager) Resend(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAwaitingVerification {
		return fmt.Errorf("%w: no verification in progress", domain.ErrInvalidState)
	}
	if m.deps.Now().Before(m.challenge.ResendAfter) {
		return domain.ErrResendTooSoon
	}

	code, err := m.openChallenge(m.challenge.Pending, m.challenge.NewRegistrant)
	if err != nil {
		return err
	}
	m.notify(ctx, "OTP Resent", fmt.Sprintf("Your new security code is %s.", code), domain.NotifyInfo)
	return nil
}

// Cancel abandons the pending attempt without touching the roster.
func (m *SessionManager) Cancel(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAwaitingVerification {
		return fmt.Errorf("%w: no verification in progress", domain.ErrInvalidState)
	}
	m.reset()
	return nil
}

// SwitchRole changes the active role of the session and persists it at once.
// The roster entry keeps its registered role.
func (m *SessionManager) SwitchRole(ctx context.Context, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidationFailed, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAuthenticated {
		return fmt.Errorf("%w: not signed in", domain.ErrInvalidState)
	}

	updated := *m.session
	updated.Role = role
	updated.Identity.Role = role
	if err := m.persist(ctx, updated); err != nil {
		return err
	}
	m.session = &updated
	slog.Info("role switched", "client", m.clientID, "identity", updated.Identity.ID, "role", role)
	return nil
}

// Logout ends the session and removes it from the store.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAuthenticated {
		return fmt.Errorf("%w: not signed in", domain.ErrInvalidState)
	}
	if err := m.deps.Store.Delete(ctx, SessionKey(m.clientID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.reset()

	m.notify(ctx, "Logged Out", "Your secure session has been terminated.", domain.NotifyInfo)
	slog.Info("logged out", "client", m.clientID)
	return nil
}

// ContinueAsGuest signs the client in as a throwaway citizen. Guests are
// never added to the roster.
func (m *SessionManager) ContinueAsGuest(ctx context.Context) error {
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAnonymous {
		return fmt.Errorf("%w: guest access requires an anonymous session", domain.ErrInvalidState)
	}

	record := domain.SessionRecord{
		Identity: domain.Identity{
			ID:         fmt.Sprintf("guest_%d", rand.IntN(1000)),
			Name:       "Guest Citizen",
			Email:      "guest@solapur.in",
			Role:       domain.RoleCitizen,
			Reputation: 100,
			Avatar:     "https://i.pravatar.cc/150?u=guest",
		},
		Role:          domain.RoleCitizen,
		EstablishedAt: m.deps.Now().UTC(),
		Guest:         true,
	}
	if err := m.persist(ctx, record); err != nil {
		return err
	}
	m.session = &record
	m.state = domain.StateAuthenticated

	m.notify(ctx, "Guest Access Granted", "Welcome to FixMyCity! You are browsing in guest mode.", domain.NotifySuccess)
	return nil
}

// Snapshot returns a copy of the current state for display.
func (m *SessionManager) Snapshot() domain.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := domain.SessionSnapshot{State: m.state}
	if m.session != nil {
		identity := m.session.Identity
		snap.Identity = &identity
		snap.Guest = m.session.Guest
	}
	if m.challenge != nil {
		snap.PendingEmail = m.challenge.Pending.Email
		snap.ResendAfter = m.challenge.ResendAfter
	}
	return snap
}

// Current returns the established session, or nil when not authenticated.
func (m *SessionManager) Current() *domain.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	record := *m.session
	return &record
}

// Remembered returns the login details saved by the last attempt, or nil.
func (m *SessionManager) Remembered(ctx context.Context) (*domain.RememberedLogin, error) {
	raw, err := m.deps.Store.Load(ctx, RememberKey(m.clientID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load remembered login: %w", err)
	}

	var remembered domain.RememberedLogin
	if err := json.Unmarshal(raw, &remembered); err != nil {
		slog.Warn("discarding unreadable remembered login", "client", m.clientID, "error", err)
		if err := m.deps.Store.Delete(ctx, RememberKey(m.clientID)); err != nil {
			return nil, fmt.Errorf("delete remembered login: %w", err)
		}
		return nil, nil
	}
	return &remembered, nil
}

// openChallenge issues a fresh code for the pending identity and moves to
// AWAITING_VERIFICATION. Callers hold mu.
func (m *SessionManager) openChallenge(pending domain.Identity, newRegistrant bool) (string, error) {
	code, err := m.deps.Issuer.Issue()
	if err != nil {
		return "", fmt.Errorf("issue code: %w", err)
	}
	now := m.deps.Now()
	m.challenge = &domain.Challenge{
		Code:          code,
		IssuedAt:      now,
		ResendAfter:   now.Add(ResendCooldown),
		Pending:       pending,
		NewRegistrant: newRegistrant,
	}
	m.state = domain.StateAwaitingVerification
	return code, nil
}

func (m *SessionManager) persist(ctx context.Context, record domain.SessionRecord) error {
	record.Identity.SecretHash = ""
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.deps.Store.Save(ctx, SessionKey(m.clientID), raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// remember saves the login form defaults. The secret is never stored.
// Failures are logged only: the form pre-fill is a convenience.
func (m *SessionManager) remember(ctx context.Context, email string, role domain.Role) {
	raw, err := json.Marshal(domain.RememberedLogin{Email: email, Role: role})
	if err == nil {
		err = m.deps.Store.Save(ctx, RememberKey(m.clientID), raw)
	}
	if err != nil {
		slog.Warn("remember login", "client", m.clientID, "error", err)
	}
}

func (m *SessionManager) notify(ctx context.Context, title, message string, kind domain.NotificationKind) {
	if m.deps.Notifier == nil {
		return
	}
	m.deps.Notifier.Notify(ctx, m.clientID, domain.Notification{Title: title, Message: message, Kind: kind})
}

func (m *SessionManager) reset() {
	m.session = nil
	m.challenge = nil
	m.state = domain.StateAnonymous
}

func (m *SessionManager) wait(ctx context.Context) error {
	if m.deps.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(m.deps.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// validateRegistration returns the bare address to register under. Display
// names, comments and angle brackets are rejected so every roster email is a
// plain addr-spec.
func validateRegistration(reg domain.Registration) (string, error) {
	if reg.Name == "" || reg.Email == "" || reg.Secret == "" {
		return "", fmt.Errorf("%w: all fields are required for registration", domain.ErrValidationFailed)
	}
	if !reg.Role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrValidationFailed, reg.Role)
	}
	addr, err := mail.ParseAddress(reg.Email)
	if err != nil || addr.Address != reg.Email {
		return "", fmt.Errorf("%w: invalid email address", domain.ErrValidationFailed)
	}
	if len(reg.Secret) > maxSecretLen {
		return "", fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidationFailed, maxSecretLen)
	}
	return addr.Address, nil
}

func newIdentityID(role domain.Role) string {
	prefix := "usr"
	if role == domain.RoleAuthority {
		prefix = "adm"
	}
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
