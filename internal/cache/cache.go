// Package cache persists normalized source payloads keyed by source tag, year
// and an optional round or kind discriminator. Records never expire on their
// own: they stay valid until Clear is called or a caller-set TTL policy says
// otherwise.
package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrMiss is returned by Store.Get when no record exists for a key.
var ErrMiss = errors.New("cache miss")

// Key addresses one cached payload.
type Key struct {
	Source        string
	Year          int
	Discriminator string
}

// NewKey builds a key without a discriminator.
func NewKey(source string, year int) Key {
	return Key{Source: source, Year: year}
}

// WithDiscriminator returns a copy of the key scoped to a round or kind.
func (k Key) WithDiscriminator(d string) Key {
	k.Discriminator = d
	return k
}

// String renders {source}_{year} or {source}_{year}_{discriminator}. It is
// also the on-disk file stem for the local backend.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Source)
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(k.Year))
	if k.Discriminator != "" {
		b.WriteByte('_')
		b.WriteString(k.Discriminator)
	}
	return b.String()
}

// Record is a stored payload plus the time it was written.
type Record struct {
	Payload  []byte
	StoredAt time.Time
}

// Store is the durable key-to-payload backend.
type Store interface {
	Get(ctx context.Context, key Key) (Record, error)
	Put(ctx context.Context, key Key, payload []byte) error
	Clear(ctx context.Context) error
}
