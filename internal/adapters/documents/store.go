// Package documents keeps the text of documents open in an editor and reads
// everything else from disk.
package documents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DocumentStore = (*Store)(nil)

// Store implements ports.DocumentStore.
type Store struct {
	mu        sync.Mutex
	open      map[string]domain.TextDocument
	listeners map[string]map[uint64]ports.DocumentListener
	next      uint64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		open:      make(map[string]domain.TextDocument),
		listeners: make(map[string]map[uint64]ports.DocumentListener),
	}
}

// Open returns the document at path. Documents open in an editor are returned
// as versioned, everything else is read from disk.
func (s *Store) Open(_ context.Context, path string) (*domain.TextDocument, error) {
	path = filepath.Clean(path)

	s.mu.Lock()
	doc, ok := s.open[path]
	s.mu.Unlock()
	if ok {
		return &doc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(domain.ErrDocumentOpenFailed, zerr.With(zerr.Wrap(err, "cannot read document"), "path", path))
	}
	return &domain.TextDocument{Path: path, Text: string(data)}, nil
}

// IsOpen reports whether the document at path is open in an editor.
func (s *Store) IsOpen(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[filepath.Clean(path)]
	return ok
}

// DidOpen records a document opened in an editor and notifies its subscribers.
func (s *Store) DidOpen(ctx context.Context, path, text string, version int) {
	path = filepath.Clean(path)
	doc := domain.TextDocument{Path: path, Text: text, Version: version, Versioned: true}

	s.mu.Lock()
	s.open[path] = doc
	listeners := s.listenersLocked(path)
	s.mu.Unlock()

	notify(ctx, listeners, &doc)
}

// DidChange replaces the text of an open document. Changes older than the
// current version and changes to documents that are not open are ignored.
func (s *Store) DidChange(ctx context.Context, path, text string, version int) {
	path = filepath.Clean(path)

	s.mu.Lock()
	current, ok := s.open[path]
	if !ok || version < current.Version {
		s.mu.Unlock()
		return
	}
	doc := domain.TextDocument{Path: path, Text: text, Version: version, Versioned: true}
	s.open[path] = doc
	listeners := s.listenersLocked(path)
	s.mu.Unlock()

	notify(ctx, listeners, &doc)
}

// DidClose forgets an open document. Subscribers are notified with an
// unversioned document so cached results fall back to the file on disk.
func (s *Store) DidClose(ctx context.Context, path string) {
	path = filepath.Clean(path)

	s.mu.Lock()
	if _, ok := s.open[path]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.open, path)
	listeners := s.listenersLocked(path)
	s.mu.Unlock()

	notify(ctx, listeners, &domain.TextDocument{Path: path})
}

// Subscribe registers fn for changes of the document at path.
// The returned function removes the subscription.
func (s *Store) Subscribe(path string, fn ports.DocumentListener) func() {
	path = filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	if s.listeners[path] == nil {
		s.listeners[path] = make(map[uint64]ports.DocumentListener)
	}
	s.listeners[path][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners[path], id)
			if len(s.listeners[path]) == 0 {
				delete(s.listeners, path)
			}
		})
	}
}

// listenersLocked returns a snapshot of the subscribers of path.
func (s *Store) listenersLocked(path string) []ports.DocumentListener {
	subs := s.listeners[path]
	if len(subs) == 0 {
		return nil
	}
	out := make([]ports.DocumentListener, 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}

func notify(ctx context.Context, listeners []ports.DocumentListener, doc *domain.TextDocument) {
	for _, fn := range listeners {
		fn(ctx, doc)
	}
}
