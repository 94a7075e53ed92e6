// Package postgres provides a Postgres-backed cache.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

const defaultTable = "f1_cache"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for cache rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store keeps one row per cache key.
type Store struct {
	pool  pool
	table string
	now   func() time.Time
}

// New connects to Postgres and creates the cache table if it is missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("cache.postgres_dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &Store{pool: p, table: table, now: time.Now}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p, table: name, now: time.Now}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the cache table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	cache_key TEXT PRIMARY KEY,
	payload BYTEA NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Get selects the row for key.
func (s *Store) Get(ctx context.Context, key cache.Key) (cache.Record, error) {
	query := fmt.Sprintf(`SELECT payload, stored_at FROM %s WHERE cache_key = $1`, s.table)
	var rec cache.Record
	if err := s.pool.QueryRow(ctx, query, key.String()).Scan(&rec.Payload, &rec.StoredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cache.Record{}, cache.ErrMiss
		}
		return cache.Record{}, fmt.Errorf("select cache row: %w", err)
	}
	rec.StoredAt = rec.StoredAt.UTC()
	return rec, nil
}

// Put upserts the row for key.
func (s *Store) Put(ctx context.Context, key cache.Key, payload []byte) error {
	query := fmt.Sprintf(`
INSERT INTO %s (cache_key, payload, stored_at)
VALUES ($1, $2, $3)
ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at`, s.table)
	if _, err := s.pool.Exec(ctx, query, key.String(), payload, s.now().UTC()); err != nil {
		return fmt.Errorf("upsert cache row: %w", err)
	}
	return nil
}

// Clear deletes every row.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("clear cache table: %w", err)
	}
	return nil
}
