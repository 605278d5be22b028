package ports

import (
	"context"

	"go.trai.ch/importcache/internal/core/domain"
)

// WatchHandle identifies a group of registered watch patterns.
type WatchHandle uint64

// ChangeHandler receives batches of file changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type ChangeHandler interface {
	// OnFileChangeBatch is called with an ordered batch of changes.
	OnFileChangeBatch(ctx context.Context, batch []domain.FileChange)
}

// FileWatcher registers glob patterns whose matching changes are delivered to a handler.
type FileWatcher interface {
	// AddFileWatchers registers patterns for handler. A handler registered under
	// several handles receives each change at most once per batch.
	AddFileWatchers(ctx context.Context, handler ChangeHandler, patterns []string) (WatchHandle, error)
	// RemoveFileWatcher removes the patterns registered under handle.
	RemoveFileWatcher(ctx context.Context, handle WatchHandle) error
}
