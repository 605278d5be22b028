package watcher

import (
	"io"
	"os"
	"sync"
	"unique"

	"github.com/cespare/xxhash/v2"
)

// digests remembers the content digest of files seen by the watcher so that
// writes which leave the bytes unchanged can be dropped.
type digests struct {
	mu   sync.Mutex
	sums map[unique.Handle[string]]uint64
}

func newDigests() *digests {
	return &digests{sums: make(map[unique.Handle[string]]uint64)}
}

// changed records the current digest of path and reports whether it differs
// from the previous one. Unreadable paths and paths seen for the first time
// always count as changed.
func (d *digests) changed(path string) bool {
	sum, err := fileDigest(path)
	if err != nil {
		d.forget(path)
		return true
	}

	handle := unique.Make(path)
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.sums[handle]
	d.sums[handle] = sum
	return !ok || prev != sum
}

func (d *digests) forget(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sums, unique.Make(path))
}

func (d *digests) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sums)
}

func fileDigest(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, os.ErrInvalid
	}

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
