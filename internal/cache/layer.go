package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/metrics"
)

// Lookup results recorded in metrics.
const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultCorrupt = "corrupt"
	resultExpired = "expired"
	resultBypass  = "bypass"
	resultError   = "error"
)

// Policy controls how cached records are read. An empty TTL map means every
// record is valid until cleared.
type Policy struct {
	TTL map[string]time.Duration
	// Bypass skips every read while still writing.
	Bypass bool
}

// ttlFor returns the TTL configured for a source tag, or zero for none.
func (p Policy) ttlFor(source string) time.Duration {
	if p.TTL == nil {
		return 0
	}
	return p.TTL[source]
}

// Layer wraps a Store with the JSON codec and read policy. Read and write
// failures are logged and swallowed; callers only see hit or miss.
type Layer struct {
	store  Store
	policy Policy
	now    func() time.Time
	logger *zap.Logger
}

// Option customizes a Layer.
type Option func(*Layer)

// WithPolicy sets the read policy.
func WithPolicy(p Policy) Option {
	return func(l *Layer) {
		l.policy = p
	}
}

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(l *Layer) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLayer constructs a Layer over store.
func NewLayer(store Store, logger *zap.Logger, opts ...Option) (*Layer, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Layer{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

type bypassKey struct{}

// ContextWithBypass marks ctx so that Load skips reads for this request only.
func ContextWithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// Load decodes the record for key into dst and reports whether it did.
func (l *Layer) Load(ctx context.Context, key Key, dst any) bool {
	if l == nil {
		return false
	}
	if l.policy.Bypass || bypassed(ctx) {
		metrics.ObserveCacheLookup(key.Source, resultBypass)
		return false
	}

	rec, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			metrics.ObserveCacheLookup(key.Source, resultMiss)
			return false
		}
		metrics.ObserveCacheLookup(key.Source, resultError)
		l.logger.Warn("cache read failed", zap.String("key", key.String()), zap.Error(err))
		return false
	}

	if ttl := l.policy.ttlFor(key.Source); ttl > 0 && l.now().Sub(rec.StoredAt) > ttl {
		metrics.ObserveCacheLookup(key.Source, resultExpired)
		l.logger.Debug("cache record expired",
			zap.String("key", key.String()),
			zap.Time("stored_at", rec.StoredAt),
			zap.Duration("ttl", ttl),
		)
		return false
	}

	if err := json.Unmarshal(rec.Payload, dst); err != nil {
		metrics.ObserveCacheLookup(key.Source, resultCorrupt)
		l.logger.Warn("cache payload corrupt, treating as miss", zap.String("key", key.String()), zap.Error(err))
		return false
	}
	metrics.ObserveCacheLookup(key.Source, resultHit)
	return true
}

// Save encodes v and writes it under key.
func (l *Layer) Save(ctx context.Context, key Key, v any) {
	if l == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		l.logger.Warn("cache encode failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	if err := l.store.Put(ctx, key, payload); err != nil {
		l.logger.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	l.logger.Debug("cached payload", zap.String("key", key.String()), zap.Int("bytes", len(payload)))
}

// Clear removes every record from the underlying store.
func (l *Layer) Clear(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
