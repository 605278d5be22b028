package ports

import (
	"time"

	"go.trai.ch/importcache/internal/core/domain"
)

// Metrics records cache activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// CacheHit records a lookup served from a valid entry.
	CacheHit(kind domain.ImportKind)
	// CacheMiss records a lookup that had to compute its document.
	CacheMiss(kind domain.ImportKind)
	// Invalidated records entries invalidated by one change batch.
	Invalidated(kind domain.ImportKind, n int)
	// Evicted records an entry removed from its table.
	Evicted(kind domain.ImportKind)
	// ObserveCompute records the duration and outcome of one computation.
	ObserveCompute(kind domain.ImportKind, d time.Duration, err error)
	// SetEntries records the current number of entries of a table.
	SetEntries(kind domain.ImportKind, n int)
}
