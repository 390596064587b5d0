package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fixmycity/fixmycity/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// RosterKey is the record under which the whole roster is persisted.
const RosterKey = "fixmycity_db_users"

// SeedAccount is a demo identity installed on first run, with its plaintext
// secret so the demo logins work out of the box.
type SeedAccount struct {
	Identity domain.Identity
	Secret   string
}

// Directory looks up, creates and validates identities in the roster.
// The roster is loaded and saved as a single record; mu serializes the
// read-modify-write cycle so concurrent registrations cannot lose updates.
type Directory struct {
	mu         sync.Mutex
	store      domain.RecordStore
	bcryptCost int
	seed       []SeedAccount
}

// NewDirectory creates a Directory over the given store.
func NewDirectory(store domain.RecordStore, bcryptCost int, seed []SeedAccount) *Directory {
	return &Directory{store: store, bcryptCost: bcryptCost, seed: seed}
}

// Initialize seeds the roster with the demo accounts if it has never been written.
func (d *Directory) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.store.Load(ctx, RosterKey)
	if err == nil {
		slog.Info("roster connected")
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load roster: %w", err)
	}

	slog.Info("seeding default users", "count", len(d.seed))
	_, err = d.resetToSeed(ctx)
	return err
}

// FindByEmail returns the identity with the given email, compared case-insensitively.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	roster, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	i := roster.Find(email)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	identity := roster[i]
	return &identity, nil
}

// Create appends the identity to the roster. It reports false, leaving the
// roster untouched, when the email is already taken.
func (d *Directory) Create(ctx context.Context, identity domain.Identity) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	roster, err := d.load(ctx)
	if err != nil {
		return false, err
	}
	if roster.Find(identity.Email) >= 0 {
		return false, nil
	}

	roster = append(roster, identity)
	if err := d.save(ctx, roster); err != nil {
		return false, err
	}
	slog.Info("identity created", "id", identity.ID, "role", identity.Role)
	return true, nil
}

// Validate returns the identity only if it exists and secret matches its
// stored credential exactly.
func (d *Directory) Validate(ctx context.Context, email, secret string) (*domain.Identity, error) {
	identity, err := d.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if identity.SecretHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.SecretHash), []byte(secret)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return identity, nil
}

// List returns every identity in roster order.
func (d *Directory) List(ctx context.Context) (domain.Roster, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx)
}

// HashSecret derives the stored form of a credential secret.
func (d *Directory) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), d.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// load reads the roster. A missing roster is empty; an unparsable one is
// replaced by the seed roster. Callers hold mu.
func (d *Directory) load(ctx context.Context) (domain.Roster, error) {
	raw, err := d.store.Load(ctx, RosterKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Roster{}, nil
		}
		return nil, fmt.Errorf("load roster: %w", err)
	}

	var roster domain.Roster
	if err := json.Unmarshal(raw, &roster); err != nil {
		slog.Warn("roster unreadable, resetting to seed",
			"error", fmt.Errorf("%w: %v", domain.ErrStoreCorrupted, err))
		return d.resetToSeed(ctx)
	}
	return roster, nil
}

func (d *Directory) save(ctx context.Context, roster domain.Roster) error {
	raw, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := d.store.Save(ctx, RosterKey, raw); err != nil {
		return fmt.Errorf("save roster: %w", err)
	}
	return nil
}

func (d *Directory) resetToSeed(ctx context.Context) (domain.Roster, error) {
	roster := make(domain.Roster, 0, len(d.seed))
	for _, acct := range d.seed {
		if roster.Find(acct.Identity.Email) >= 0 {
			continue
		}
		identity := acct.Identity
		if acct.Secret != "" {
			hash, err := d.HashSecret(acct.Secret)
			if err != nil {
				return nil, err
			}
			identity.SecretHash = hash
		}
		identity.Email = strings.TrimSpace(identity.Email)
		roster = append(roster, identity)
	}
	if err := d.save(ctx, roster); err != nil {
		return nil, err
	}
	return roster, nil
}
