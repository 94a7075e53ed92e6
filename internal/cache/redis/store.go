// Package redis provides a cache.Store backed by Redis string values.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

const defaultPrefix = "f1:cache:"

// Config holds the connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type envelope struct {
	StoredAt time.Time `json:"stored_at"`
	Payload  []byte    `json:"payload"`
}

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Store keeps one Redis key per cache key.
type Store struct {
	client client
	prefix string
	now    func() time.Time
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("cache.redis_addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: c, prefix: prefix, now: time.Now}
}

func (s *Store) redisKey(key cache.Key) string {
	return s.prefix + key.String()
}

// Get reads and unwraps the stored envelope.
func (s *Store) Get(ctx context.Context, key cache.Key) (cache.Record, error) {
	raw, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cache.Record{}, cache.ErrMiss
		}
		return cache.Record{}, fmt.Errorf("redis get: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Treat a foreign value as the payload itself so the codec layer decides.
		return cache.Record{Payload: raw}, nil
	}
	return cache.Record{Payload: env.Payload, StoredAt: env.StoredAt}, nil
}

// Put stores payload without expiry.
func (s *Store) Put(ctx context.Context, key cache.Key, payload []byte) error {
	raw, err := json.Marshal(envelope{StoredAt: s.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
