// Package gcs provides a cache.Store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

// Config captures the bucket and object prefix for cache objects.
type Config struct {
	Bucket string
	Prefix string
}

// Store keeps one object per cache key.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed cache store.
func New(client *storage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// ObjectName maps a key to its object path.
func (s *Store) ObjectName(key cache.Key) string {
	name := key.String() + ".json"
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Get downloads the object for key.
func (s *Store) Get(ctx context.Context, key cache.Key) (cache.Record, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.ObjectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return cache.Record{}, cache.ErrMiss
		}
		return cache.Record{}, fmt.Errorf("open object: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()
	data, err := io.ReadAll(reader)
	if err != nil {
		return cache.Record{}, fmt.Errorf("read object: %w", err)
	}
	return cache.Record{Payload: data, StoredAt: reader.Attrs.LastModified.UTC()}, nil
}

// Put uploads payload as the object for key.
func (s *Store) Put(ctx context.Context, key cache.Key, payload []byte) error {
	name := s.ObjectName(key)
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(payload); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", name, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", name, err)
	}
	return nil
}

// Clear deletes every object under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	query := &storage.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}
	bkt := s.client.Bucket(s.bucket)
	it := bkt.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}
		if err := bkt.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %s: %w", attrs.Name, err)
		}
	}
}
