package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation owns its own migration files and strategy.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// RecordStore is a durable key-value store. Values are opaque bytes; callers
// own the encoding. A Save replaces the whole value for a key in one step, so
// readers never observe a partial write.
type RecordStore interface {
	// Load returns ErrNotFound if the key has never been saved.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}
