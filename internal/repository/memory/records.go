// Package memory provides in-process implementations of the persistence
// interfaces, for tests and ephemeral runs.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/fixmycity/fixmycity/internal/domain"
)

// RecordStore implements domain.RecordStore with a map. It is safe for
// concurrent use.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewRecordStore creates an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string][]byte)}
}

func (s *RecordStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (s *RecordStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = bytes.Clone(value)
	return nil
}

func (s *RecordStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
