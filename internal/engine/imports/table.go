package imports

import (
	"context"
	"sync"

	"go.trai.ch/importcache/internal/core/domain"
)

// table maps keys of one kind to their entries. Its lock guards only lookups
// and membership changes, never computation.
type table[K comparable, D domain.Document] struct {
	kind domain.ImportKind

	mu      sync.Mutex
	entries map[K]*entry[K, D]
}

func newTable[K comparable, D domain.Document](kind domain.ImportKind) *table[K, D] {
	return &table[K, D]{
		kind:    kind,
		entries: make(map[K]*entry[K, D]),
	}
}

// getOrCreate returns the entry for key, creating it with create on a miss.
// A non-empty ref is added to the entry under the table lock, so eviction of
// the same entry cannot interleave. The boolean reports whether ref was new.
func (t *table[K, D]) getOrCreate(key K, ref domain.Referrer, create func() *entry[K, D]) (*entry[K, D], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = create()
		t.entries[key] = e
	}
	if ref == "" {
		return e, false
	}
	return e, e.addReferrer(ref)
}

func (t *table[K, D]) get(key K) (*entry[K, D], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	return e, ok
}

// release drops ref from e. When e has no referrers left and is still the
// entry registered under key, it is removed from the table and invalidated.
// It reports whether e was evicted.
func (t *table[K, D]) release(ctx context.Context, key K, e *entry[K, D], ref domain.Referrer) bool {
	t.mu.Lock()
	empty := e.dropReferrer(ref)
	evict := empty && t.entries[key] == e
	if evict {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !evict {
		return false
	}
	e.remove(ctx)
	return true
}

// snapshot returns the live entries.
func (t *table[K, D]) snapshot() []*entry[K, D] {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entry[K, D], 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// drain removes and returns every entry.
func (t *table[K, D]) drain() []*entry[K, D] {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entry[K, D], 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	t.entries = make(map[K]*entry[K, D])
	return out
}

// TableStats describes one entry table.
type TableStats struct {
	Entries    int `json:"entries"`
	Valid      int `json:"valid"`
	Referenced int `json:"referenced"`
}

func (t *table[K, D]) stats() TableStats {
	var s TableStats
	for _, e := range t.snapshot() {
		s.Entries++
		if e.isValid() {
			s.Valid++
		}
		if e.referenced() {
			s.Referenced++
		}
	}
	return s
}

func (t *table[K, D]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
