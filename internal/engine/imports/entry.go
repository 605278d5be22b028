package imports

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
)

// errEntryRemoved is returned by document when the entry left its table
// before it could compute. The caller looks the key up again.
var errEntryRemoved = errors.New("entry was removed from its table")

// errStaleDocument is returned by watch when the source changed after it was
// loaded but before notifications were in place. The entry loads again.
var errStaleDocument = errors.New("document changed while loading")

// release undoes one change-notification registration.
type release func(ctx context.Context) error

// origin is the request an entry was created for. Entries are keyed by their
// resolved identity, so the first request that resolved to a key is the one
// used for every later computation.
type origin struct {
	req      domain.ImportRequest
	resolved *domain.ResolvedImport
}

// loader is the kind-specific half of an entry.
type loader[K comparable, D domain.Document] interface {
	// load computes the document.
	load(ctx context.Context, key K, s origin) (D, error)
	// watch registers change notifications for doc. Registrations made before
	// a failure are returned alongside the error.
	watch(ctx context.Context, key K, s origin, doc D) ([]release, error)
	// affects reports whether a change at path makes doc stale.
	affects(s origin, doc D, path string) bool
}

// entry holds one cached document.
//
// lock serializes computation and invalidation: a caller holds it by placing
// the single token into the channel, which lets waiters give up when their
// context ends. mu guards the fields below it and is only held briefly.
type entry[K comparable, D domain.Document] struct {
	key    K
	kind   domain.ImportKind
	origin origin
	loader loader[K, D]
	log    ports.Logger

	lock chan struct{}

	mu        sync.Mutex
	doc       D
	valid     bool
	removed   bool
	releases  []release
	referrers map[domain.Referrer]struct{}
}

func newEntry[K comparable, D domain.Document](
	key K,
	kind domain.ImportKind,
	s origin,
	l loader[K, D],
	log ports.Logger,
) *entry[K, D] {
	return &entry[K, D]{
		key:       key,
		kind:      kind,
		origin:    s,
		loader:    l,
		log:       log,
		lock:      make(chan struct{}, 1),
		referrers: make(map[domain.Referrer]struct{}),
	}
}

func (e *entry[K, D]) acquire(ctx context.Context) error {
	select {
	case e.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry[K, D]) unlock() {
	<-e.lock
}

// current returns the cached document, if any.
func (e *entry[K, D]) current() (D, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc, e.valid
}

// isValid reports whether a document is cached.
func (e *entry[K, D]) isValid() bool {
	_, ok := e.current()
	return ok
}

// document returns the cached document, computing it first if absent.
// The boolean result is true when the document was served from the cache.
// Failures are returned to the caller and leave the entry empty.
func (e *entry[K, D]) document(ctx context.Context) (D, bool, error) {
	if doc, ok := e.current(); ok {
		return doc, true, nil
	}

	var zero D
	if err := e.acquire(ctx); err != nil {
		return zero, false, err
	}
	defer e.unlock()

	// Another caller may have filled or removed the entry while we waited for the lock.
	e.mu.Lock()
	doc, valid, removed := e.doc, e.valid, e.removed
	e.mu.Unlock()
	if valid {
		return doc, true, nil
	}
	if removed {
		return zero, false, errEntryRemoved
	}

	for {
		doc, err := e.loader.load(ctx, e.key, e.origin)
		if err != nil {
			return zero, false, err
		}

		releases, err := e.loader.watch(ctx, e.key, e.origin, doc)
		if errors.Is(err, errStaleDocument) {
			e.releaseAll(ctx, releases)
			if ctx.Err() != nil {
				return zero, false, ctx.Err()
			}
			continue
		}
		if err != nil {
			e.log.Warn(fmt.Sprintf("%s %s is cached without change notifications: %v", e.kind, e.keyString(), err))
		}

		e.mu.Lock()
		e.doc = doc
		e.valid = true
		e.releases = releases
		e.mu.Unlock()

		return doc, false, nil
	}
}

// invalidate clears the document and releases its registrations.
// It returns the previous document and whether there was one.
func (e *entry[K, D]) invalidate(ctx context.Context) (D, bool, error) {
	var zero D
	if err := e.acquire(ctx); err != nil {
		return zero, false, err
	}
	defer e.unlock()

	doc, ok := e.invalidateLocked(ctx)
	return doc, ok, nil
}

// remove marks the entry as no longer reachable from its table and clears it.
// It waits for an in-flight computation regardless of ctx, so a document
// computed into a removed entry is always released.
func (e *entry[K, D]) remove(ctx context.Context) (D, bool) {
	_ = e.acquire(context.WithoutCancel(ctx))
	defer e.unlock()

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return e.invalidateLocked(ctx)
}

func (e *entry[K, D]) invalidateLocked(ctx context.Context) (D, bool) {
	var zero D

	e.mu.Lock()
	if !e.valid {
		e.mu.Unlock()
		return zero, false
	}
	doc := e.doc
	releases := e.releases
	e.doc = zero
	e.valid = false
	e.releases = nil
	e.mu.Unlock()

	e.releaseAll(ctx, releases)
	return doc, true
}

func (e *entry[K, D]) releaseAll(ctx context.Context, releases []release) {
	for _, r := range releases {
		if err := r(ctx); err != nil {
			e.log.Warn(fmt.Sprintf("failed to release watcher of %s %s: %v", e.kind, e.keyString(), err))
		}
	}
}

// checkFileChanged invalidates the entry if any change in batch affects its
// document. It returns the invalidated document and the kind of the first
// matching change. An empty entry never matches. A check arriving during a
// computation waits for it and is then applied to the fresh document.
func (e *entry[K, D]) checkFileChanged(ctx context.Context, batch []domain.FileChange) (D, domain.ChangeKind, bool, error) {
	var zero D
	if err := e.acquire(ctx); err != nil {
		return zero, 0, false, err
	}
	defer e.unlock()

	doc, ok := e.current()
	if !ok {
		return zero, 0, false, nil
	}

	for _, change := range batch {
		if !e.loader.affects(e.origin, doc, change.Path) {
			continue
		}
		old, invalidated := e.invalidateLocked(ctx)
		if !invalidated {
			return zero, 0, false, nil
		}
		return old, change.Kind, true, nil
	}
	return zero, 0, false, nil
}

// addReferrer records ref and reports whether it was new.
func (e *entry[K, D]) addReferrer(ref domain.Referrer) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.referrers[ref]; ok {
		return false
	}
	e.referrers[ref] = struct{}{}
	return true
}

// dropReferrer removes ref and reports whether the entry is now unreferenced.
func (e *entry[K, D]) dropReferrer(ref domain.Referrer) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.referrers, ref)
	return len(e.referrers) == 0
}

func (e *entry[K, D]) referenced() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.referrers) > 0
}

func (e *entry[K, D]) keyString() string {
	if s, ok := any(e.key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(e.key)
}
