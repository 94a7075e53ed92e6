// Package local implements the on-disk cache: one JSON file per key.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

const fileExt = ".json"

// Config captures the parameters for the local filesystem cache.
type Config struct {
	// BaseDir is the directory holding cache files.
	BaseDir string `mapstructure:"dir" yaml:"dir"`
}

// Store reads and writes cache files under a base directory.
type Store struct {
	baseDir string
}

// New creates the base directory if needed and checks it is writable.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat cache directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("cache directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("cache directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Get reads the file for key. The record time is the file's mtime.
func (s *Store) Get(_ context.Context, key cache.Key) (cache.Record, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return cache.Record{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cache.Record{}, cache.ErrMiss
		}
		return cache.Record{}, fmt.Errorf("stat cache file: %w", err)
	}
	// #nosec G304 -- path is confined to baseDir by pathFor.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cache.Record{}, cache.ErrMiss
		}
		return cache.Record{}, fmt.Errorf("read cache file: %w", err)
	}
	return cache.Record{Payload: data, StoredAt: info.ModTime().UTC()}, nil
}

// Put writes payload to the file for key, replacing any previous content.
func (s *Store) Put(_ context.Context, key cache.Key, payload []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Clear removes every cache file in the base directory.
func (s *Store) Clear(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, "*"+fileExt))
	if err != nil {
		return fmt.Errorf("list cache files: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(m), err)
		}
	}
	return nil
}

func (s *Store) pathFor(key cache.Key) (string, error) {
	name := key.String()
	if strings.TrimSpace(key.Source) == "" {
		return "", fmt.Errorf("cache key source is required")
	}
	fullPath := filepath.Join(s.baseDir, name+fileExt)

	rel, err := filepath.Rel(filepath.Clean(s.baseDir), filepath.Clean(fullPath))
	if err != nil || rel != filepath.Base(rel) || rel == ".." {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}
