// Package watcher implements host file watching on top of fsnotify.
package watcher

import (
	"sync"
	"time"
	"unique"

	"go.trai.ch/importcache/internal/core/domain"
)

// Debouncer coalesces rapid file system events into ordered change batches.
//
// A path appears once per batch, at the position of its first event. Its kind
// is the latest one observed, except that a modification of a file created in
// the same window is still reported as a creation. Batches are delivered one
// at a time in the order they were cut.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]int
	order    []domain.FileChange
	timer    *time.Timer
	window   time.Duration
	callback func(batch []domain.FileChange)

	queue      [][]domain.FileChange
	delivering bool
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(batch []domain.FileChange)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]int),
		window:   window,
		callback: callback,
	}
}

// SetWindow changes the debounce window for events added from now on.
func (d *Debouncer) SetWindow(window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.window = window
}

// Add records a change and restarts the debounce window.
func (d *Debouncer) Add(change domain.FileChange) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handle := unique.Make(change.Path)
	if i, ok := d.pending[handle]; ok {
		d.order[i].Kind = mergeKinds(d.order[i].Kind, change.Kind)
	} else {
		d.pending[handle] = len(d.order)
		d.order = append(d.order, change)
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func mergeKinds(prev, next domain.ChangeKind) domain.ChangeKind {
	if prev == domain.ChangeCreated && next == domain.ChangeModified {
		return domain.ChangeCreated
	}
	return next
}

// fire is called when the debounce window expires.
func (d *Debouncer) fire() {
	d.mu.Lock()
	batch := d.takeLocked()
	d.mu.Unlock()

	d.deliver(batch)
}

// Flush stops the window and delivers every pending change. When a delivery is
// already running on another goroutine, the batch is queued behind it.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	batch := d.takeLocked()
	d.mu.Unlock()

	d.deliver(batch)
}

// Stop discards pending changes without delivering them.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.takeLocked()
}

func (d *Debouncer) takeLocked() []domain.FileChange {
	batch := d.order
	d.order = nil
	clear(d.pending)
	return batch
}

func (d *Debouncer) deliver(batch []domain.FileChange) {
	if len(batch) == 0 || d.callback == nil {
		return
	}

	d.mu.Lock()
	d.queue = append(d.queue, batch)
	if d.delivering {
		d.mu.Unlock()
		return
	}
	d.delivering = true
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		d.callback(next)
		d.mu.Lock()
	}
	d.delivering = false
	d.mu.Unlock()
}
