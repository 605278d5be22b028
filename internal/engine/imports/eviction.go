package imports

import (
	"context"

	"go.trai.ch/importcache/internal/core/domain"
)

// trackReferrer remembers how to drop ref from one entry.
func (m *Manager) trackReferrer(ref domain.Referrer, drop func(context.Context)) {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	m.releases[ref] = append(m.releases[ref], drop)
}

// Release drops referrer from every entry it holds. Entries left without any
// referrer are removed from their table and their watchers released, so the
// next lookup computes a fresh document.
//
// Entries looked up without a referrer are not affected and stay cached until
// they are invalidated or the cache is cleared.
func (m *Manager) Release(ctx context.Context, referrer domain.Referrer) {
	if referrer == "" {
		return
	}

	m.refMu.Lock()
	drops := m.releases[referrer]
	delete(m.releases, referrer)
	m.refMu.Unlock()

	for _, drop := range drops {
		drop(ctx)
	}
}
