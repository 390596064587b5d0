package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sessions hands out one SessionManager per client, restoring persisted
// sessions on first use. Managers idle for longer than the TTL are dropped
// from memory; an authenticated client is restored again on its next request.
type Sessions struct {
	deps    SessionDeps
	idleTTL time.Duration
	onEvict func(clientID string)

	mu       sync.Mutex
	managers map[string]*trackedManager
}

type trackedManager struct {
	manager  *SessionManager
	lastSeen time.Time
}

// NewSessions creates a registry. onEvict, if non-nil, is called with the
// client ID of each manager removed by Sweep.
func NewSessions(deps SessionDeps, idleTTL time.Duration, onEvict func(clientID string)) *Sessions {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Sessions{
		deps:     deps,
		idleTTL:  idleTTL,
		onEvict:  onEvict,
		managers: make(map[string]*trackedManager),
	}
}

// Get returns the client's manager, creating and restoring it if needed.
// Restore runs outside the registry lock; if two first requests race, the
// manager registered first wins and the other is discarded.
func (s *Sessions) Get(ctx context.Context, clientID string) (*SessionManager, error) {
	if m := s.touch(clientID); m != nil {
		return m, nil
	}

	m := NewSessionManager(clientID, s.deps)
	if err := m.Restore(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.deps.Now()
	if t, ok := s.managers[clientID]; ok {
		t.lastSeen = now
		return t.manager, nil
	}
	s.managers[clientID] = &trackedManager{manager: m, lastSeen: now}
	return m, nil
}

func (s *Sessions) touch(clientID string) *SessionManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.managers[clientID]
	if !ok {
		return nil
	}
	t.lastSeen = s.deps.Now()
	return t.manager
}

// Len returns the number of managers held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.managers)
}

// Sweep drops managers not seen since before cutoff and returns how many
// were removed.
func (s *Sessions) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	var evicted []string
	for clientID, t := range s.managers {
		if t.lastSeen.Before(cutoff) {
			delete(s.managers, clientID)
			evicted = append(evicted, clientID)
		}
	}
	s.mu.Unlock()

	if s.onEvict != nil {
		for _, clientID := range evicted {
			s.onEvict(clientID)
		}
	}
	return len(evicted)
}

// Run sweeps idle managers every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.deps.Now().Add(-s.idleTTL)); n > 0 {
				slog.Debug("idle sessions evicted", "count", n)
			}
		}
	}
}
