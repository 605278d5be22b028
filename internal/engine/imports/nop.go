package imports

import (
	"context"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
)

type nopMetrics struct{}

func (nopMetrics) CacheHit(domain.ImportKind) {}
func (nopMetrics) CacheMiss(domain.ImportKind) {}
func (nopMetrics) Invalidated(domain.ImportKind, int) {}
func (nopMetrics) Evicted(domain.ImportKind) {}
func (nopMetrics) ObserveCompute(domain.ImportKind, time.Duration, error) {}
func (nopMetrics) SetEntries(domain.ImportKind, int) {}

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End() {}
func (nopSpan) RecordError(error) {}
func (nopSpan) SetAttribute(string, any) {}
