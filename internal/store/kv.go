package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ErrNotFound is returned by KV.Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// KV is the persistence substrate: opaque values under string keys.
// Set must be durable before it returns.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// SQLiteKV stores values in the kv_entries table.
type SQLiteKV struct {
	db *sql.DB
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(kvTableName)).
		Where(entsql.EQ("key", key)).
		Query()

	var value []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(kvTableName).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// MemoryKV is a process-local KV for tests and throwaway sessions.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
