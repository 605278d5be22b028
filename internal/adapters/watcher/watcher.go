package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileWatcher = (*Watcher)(nil)

// registration is one AddFileWatchers call.
type registration struct {
	handler  ports.ChangeHandler
	patterns []string
	scopes   []scope
	dirs     []string
}

// Watcher implements ports.FileWatcher using fsnotify.
//
// Directories are watched once no matter how many registrations need them.
// Events are filtered against the registered patterns, debounced into
// batches, and delivered to each handler outside the watcher's lock.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	log       ports.Logger
	digests   *digests

	mu      sync.Mutex
	next    ports.WatchHandle
	regs    map[ports.WatchHandle]*registration
	watched map[string]int
	window  time.Duration

	debouncer *Debouncer
	done      chan struct{}

	// watchedHook runs after a registration's directories are watched.
	watchedHook func()
}

// NewWatcher creates a new file system watcher. Events are only delivered
// after Start.
func NewWatcher(log ports.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		log:       log,
		digests:   newDigests(),
		regs:      make(map[ports.WatchHandle]*registration),
		watched:   make(map[string]int),
		window:    domain.DefaultDebounce,
	}, nil
}

// SetDebounce sets the window in which events are coalesced into one batch.
func (w *Watcher) SetDebounce(window time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.window = window
	if w.debouncer != nil {
		w.debouncer.SetWindow(window)
	}
}

// Start begins processing events. Handlers are called with ctx.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debouncer != nil {
		return zerr.New("watcher already started")
	}

	w.debouncer = NewDebouncer(w.window, func(batch []domain.FileChange) {
		w.dispatch(ctx, batch)
	})
	w.done = make(chan struct{})
	go w.processEvents(ctx, w.debouncer, w.done)
	return nil
}

// Stop delivers pending changes, then stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	debouncer, done := w.debouncer, w.done
	w.mu.Unlock()

	err := w.fsWatcher.Close()
	if done != nil {
		<-done
	}
	if debouncer != nil {
		debouncer.Flush()
	}
	return err
}

// AddFileWatchers registers patterns for handler and starts watching the
// directories they can match in.
func (w *Watcher) AddFileWatchers(_ context.Context, handler ports.ChangeHandler, patterns []string) (ports.WatchHandle, error) {
	if handler == nil {
		return 0, zerr.New("change handler is nil")
	}

	reg := &registration{
		handler:  handler,
		patterns: make([]string, 0, len(patterns)),
	}
	for _, p := range patterns {
		sc, err := patternScope(p)
		if err != nil {
			return 0, err
		}
		reg.patterns = append(reg.patterns, filepath.Clean(p))
		reg.scopes = append(reg.scopes, sc)
	}

	// Digests are taken before the directories are watched, so a write that
	// lands in between is compared against the older bytes.
	w.seedDigests(reg)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sc := range reg.scopes {
		if err := w.watchScopeLocked(reg, sc); err != nil {
			w.unwatchLocked(reg)
			return 0, err
		}
	}
	if w.watchedHook != nil {
		w.watchedHook()
	}

	w.next++
	w.regs[w.next] = reg
	return w.next, nil
}

// RemoveFileWatcher removes the patterns registered under handle. Unknown
// handles are ignored.
func (w *Watcher) RemoveFileWatcher(_ context.Context, handle ports.WatchHandle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	reg, ok := w.regs[handle]
	if !ok {
		return nil
	}
	delete(w.regs, handle)
	w.unwatchLocked(reg)
	return nil
}

// Registrations returns the number of live registrations.
func (w *Watcher) Registrations() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.regs)
}

// WatchedDirs returns the directories currently watched, sorted.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.watched))
}

// watchScopeLocked watches sc.dir, recursively if needed. A missing directory
// is replaced by its nearest existing ancestor so that its creation is seen.
func (w *Watcher) watchScopeLocked(reg *registration, sc scope) error {
	dir := sc.dir
	for {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}

	if dir != sc.dir || !sc.recursive {
		return w.addDirLocked(reg, dir)
	}
	return w.addTreeLocked(reg, dir)
}

func (w *Watcher) addTreeLocked(reg *registration, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip directories that vanished or cannot be read.
			return nil //nolint:nilerr // unreadable subtrees are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(d.Name()) {
			return fs.SkipDir
		}
		return w.addDirLocked(reg, path)
	})
}

func (w *Watcher) addDirLocked(reg *registration, dir string) error {
	// Adding a watched directory again is harmless and restores a watch that
	// fsnotify dropped when the directory was removed and recreated.
	if err := w.fsWatcher.Add(dir); err != nil {
		return errors.Join(domain.ErrWatcherRegistrationFailed, zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir))
	}
	w.watched[dir]++
	reg.dirs = append(reg.dirs, dir)
	return nil
}

func (w *Watcher) unwatchLocked(reg *registration) {
	for _, dir := range reg.dirs {
		w.watched[dir]--
		if w.watched[dir] > 0 {
			continue
		}
		delete(w.watched, dir)
		// The directory may already be gone, in which case fsnotify dropped it.
		_ = w.fsWatcher.Remove(dir)
	}
	reg.dirs = nil
}

// seedDigests records the digest of every file named exactly by a pattern,
// so that a first write leaving it unchanged is dropped.
func (w *Watcher) seedDigests(reg *registration) {
	for _, p := range reg.patterns {
		if hasMeta(p) {
			continue
		}
		w.digests.changed(unescape(p))
	}
}

// processEvents converts fsnotify events into debounced changes.
func (w *Watcher) processEvents(ctx context.Context, debouncer *Debouncer, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			change, ok := w.convertEvent(event)
			if !ok {
				continue
			}
			if change.Kind == domain.ChangeCreated {
				w.followCreated(change.Path)
			}
			if w.relevant(change.Path) {
				debouncer.Add(change)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn(fmt.Sprintf("file watcher error: %v", err))
		}
	}
}

// convertEvent maps an fsnotify event to a change. Writes that leave the
// content unchanged and attribute-only events are dropped.
func (w *Watcher) convertEvent(event fsnotify.Event) (domain.FileChange, bool) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.digests.forget(path)
		return domain.FileChange{Path: path, Kind: domain.ChangeDeleted}, true
	case event.Has(fsnotify.Create):
		w.digests.changed(path)
		return domain.FileChange{Path: path, Kind: domain.ChangeCreated}, true
	case event.Has(fsnotify.Write):
		if !w.digests.changed(path) {
			return domain.FileChange{}, false
		}
		return domain.FileChange{Path: path, Kind: domain.ChangeModified}, true
	default:
		return domain.FileChange{}, false
	}
}

// followCreated starts watching a newly created directory for every
// registration whose scope covers it.
func (w *Watcher) followCreated(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || ignoredDir(info.Name()) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, reg := range w.regs {
		for _, sc := range reg.scopes {
			var err error
			switch {
			case within(path, sc.dir) && (sc.recursive || path == sc.dir):
				if sc.recursive {
					err = w.addTreeLocked(reg, path)
				} else {
					err = w.addDirLocked(reg, path)
				}
			case within(sc.dir, path):
				err = w.addDirLocked(reg, path)
			default:
				continue
			}
			if err != nil {
				w.log.Warn(fmt.Sprintf("failed to follow created directory %s: %v", path, err))
			}
			break
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, reg := range w.regs {
		if matches(reg.patterns, path) {
			return true
		}
	}
	return false
}

type delivery struct {
	handler  ports.ChangeHandler
	patterns []string
	changes  []domain.FileChange
}

// dispatch sends each handler the changes matching any of its patterns.
func (w *Watcher) dispatch(ctx context.Context, batch []domain.FileChange) {
	for _, d := range w.deliveries(batch) {
		d.handler.OnFileChangeBatch(ctx, d.changes)
	}
}

// deliveries groups registrations by handler, in registration order, and
// filters batch for each group.
func (w *Watcher) deliveries(batch []domain.FileChange) []delivery {
	w.mu.Lock()
	handles := slices.Sorted(maps.Keys(w.regs))
	index := make(map[ports.ChangeHandler]int, len(handles))
	out := make([]delivery, 0, len(handles))
	for _, h := range handles {
		reg := w.regs[h]
		i, ok := index[reg.handler]
		if !ok {
			i = len(out)
			index[reg.handler] = i
			out = append(out, delivery{handler: reg.handler})
		}
		out[i].patterns = append(out[i].patterns, reg.patterns...)
	}
	w.mu.Unlock()

	n := 0
	for _, d := range out {
		for _, change := range batch {
			if matches(d.patterns, change.Path) {
				d.changes = append(d.changes, change)
			}
		}
		if len(d.changes) > 0 {
			out[n] = d
			n++
		}
	}
	return out[:n]
}
