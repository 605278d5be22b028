// export_test.go exports private functions for white-box testing.
package watcher

import (
	"context"

	"go.trai.ch/importcache/internal/core/domain"
)

// Dispatch delivers batch to the registered handlers as the debouncer would.
func (w *Watcher) Dispatch(ctx context.Context, batch []domain.FileChange) {
	w.dispatch(ctx, batch)
}

// SetWatchedHook installs fn to run right after a registration's directories
// are watched and before AddFileWatchers returns.
func (w *Watcher) SetWatchedHook(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchedHook = fn
}
