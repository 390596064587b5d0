package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
)

// RecordStore implements domain.RecordStore on the records table.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore creates a new SQLite-backed RecordStore.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db.SqlDB}
}

func (s *RecordStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM records WHERE key = ?", key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load record %q: %w", key, err)
	}
	return value, nil
}

// Save upserts the whole value in a single statement.
func (s *RecordStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save record %q: %w", key, err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}
