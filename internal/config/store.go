package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store holds the live configuration. Readers take value copies so a
// reload never changes settings in the middle of a pipeline cycle.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore creates a store seeded with cfg
func NewStore(cfg *Config) *Store {
	s := &Store{}
	if cfg != nil {
		s.cfg = *cfg
	} else {
		s.cfg = *DefaultConfig()
	}
	return s
}

// Snapshot returns a copy of the current configuration
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace swaps in a new configuration
func (s *Store) Replace(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Update applies fn to the stored configuration under the write lock
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	fn(&s.cfg)
	s.mu.Unlock()
}

// Watch reloads path into the store whenever the file is written or
// recreated. reload turns the file into a validated config; errors from it
// are passed to onError and the previous config stays in place. Watch
// blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, path string, reload func(string) (*Config, error), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := reload(path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			s.Replace(*cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
