package portfolio

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current content and swaps it when the file changes.
type Store struct {
	path    string
	current atomic.Pointer[Portfolio]
	reloads atomic.Int64
}

// NewStore loads path once. Validation problems are logged, not fatal.
func NewStore(path string) (*Store, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, problem := range p.Validate() {
		log.Printf("[Content] %s: %v", path, problem)
	}
	s := &Store{path: path}
	s.current.Store(p)
	return s, nil
}

// StaticStore wraps already loaded content. Watch is a no-op on it.
func StaticStore(p *Portfolio) *Store {
	s := &Store{}
	s.current.Store(p)
	return s
}

// Get returns the current content. The value must not be modified.
func (s *Store) Get() *Portfolio {
	return s.current.Load()
}

// Reloads counts successful reloads since start.
func (s *Store) Reloads() int64 {
	return s.reloads.Load()
}

// Reload re-reads the file. The previous content stays in place when the
// new file does not parse.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	p, err := Load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(p)
	s.reloads.Add(1)
	return nil
}

// Watch reloads the content whenever the file is written or replaced. It
// blocks until ctx is cancelled. The directory is watched rather than the
// file so editors that save by rename keep working.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				log.Printf("[Content] reload failed, keeping previous content: %v", err)
				continue
			}
			log.Printf("[Content] reloaded %s", s.path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Content] watcher error: %v", err)
		}
	}
}
