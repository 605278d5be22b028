package imports

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.trai.ch/importcache/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

// OnFileChangeBatch invalidates every entry affected by batch and emits one
// notification per kind carrying the documents that were cached before.
func (m *Manager) OnFileChangeBatch(ctx context.Context, batch []domain.FileChange) {
	if len(batch) == 0 || m.closed.Load() {
		return
	}

	libs := checkEntries(ctx, m.libraries.snapshot(), batch)
	res := checkEntries(ctx, m.resources.snapshot(), batch)
	vars := checkEntries(ctx, m.variables.snapshot(), batch)

	m.reportInvalidated(domain.KindLibrary, len(libs))
	m.reportInvalidated(domain.KindResource, len(res))
	m.reportInvalidated(domain.KindVariables, len(vars))

	m.librariesChanged.emit(ctx, libs)
	m.resourcesChanged.emit(ctx, res)
	m.variablesChanged.emit(ctx, vars)
}

// checkEntries runs every entry's change check concurrently and collects the
// documents that were invalidated.
func checkEntries[K comparable, D domain.Document](
	ctx context.Context,
	entries []*entry[K, D],
	batch []domain.FileChange,
) []D {
	var (
		mu      sync.Mutex
		changed []D
		g       errgroup.Group
	)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, e := range entries {
		g.Go(func() error {
			old, _, ok, err := e.checkFileChanged(ctx, batch)
			if err != nil {
				e.log.Warn(fmt.Sprintf("failed to check %s %s for changes: %v", e.kind, e.keyString(), err))
				return nil
			}
			if ok {
				mu.Lock()
				changed = append(changed, old)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return changed
}

func (m *Manager) reportInvalidated(kind domain.ImportKind, n int) {
	if n == 0 {
		return
	}
	m.metrics.Invalidated(kind, n)
	m.log.Info(fmt.Sprintf("invalidated %d %s import(s)", n, kind))
}

// onResourceEdited invalidates a resource whose live-edited document changed.
func (m *Manager) onResourceEdited(ctx context.Context, key domain.ResourceKey) {
	e, ok := m.resources.get(key)
	if !ok {
		return
	}
	old, invalidated, err := e.invalidate(ctx)
	if err != nil {
		m.log.Warn(fmt.Sprintf("failed to invalidate resource %s: %v", key, err))
		return
	}
	if !invalidated {
		return
	}
	m.reportInvalidated(domain.KindResource, 1)
	m.resourcesChanged.emit(ctx, []*domain.ResourceDoc{old})
}
