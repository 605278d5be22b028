package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/importcache/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor by logging finished spans.
type LogBridge struct {
	log ports.Logger
}

// NewLogBridge returns a new LogBridge writing to log.
func NewLogBridge(log ports.Logger) *LogBridge {
	return &LogBridge{log: log}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration and attributes. Failed spans are logged
// as warnings.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "span %s took %s", s.Name(), s.EndTime().Sub(s.StartTime()))
	for _, attr := range s.Attributes() {
		fmt.Fprintf(&sb, " %s=%s", attr.Key, attr.Value.Emit())
	}

	if s.Status().Code == codes.Error {
		fmt.Fprintf(&sb, ": %s", s.Status().Description)
		b.log.Warn(sb.String())
		return
	}
	b.log.Info(sb.String())
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}

// NewLoggingProvider returns a tracer provider that logs every finished span.
func NewLoggingProvider(log ports.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(NewLogBridge(log)),
	)
}
