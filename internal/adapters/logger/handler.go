package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/importcache/internal/ui/output"
	"go.trai.ch/importcache/internal/ui/style"
)

// levelMark is the glyph and color a record of a given severity is drawn with.
type levelMark struct {
	min   slog.Level
	glyph string
	color termenv.Color
}

// marks is ordered from the most to the least severe.
var marks = []levelMark{
	{min: slog.LevelError, glyph: style.Cross, color: termenv.RGBColor(string(style.Red))},
	{min: slog.LevelWarn, glyph: style.Warning, color: termenv.RGBColor(string(style.Yellow))},
}

var plainColor = termenv.RGBColor(string(style.Slate))

func markFor(level slog.Level) (string, termenv.Color) {
	for _, m := range marks {
		if level >= m.min {
			return m.glyph + " ", m.color
		}
	}
	return "", plainColor
}

// PrettyHandler is a slog.Handler that writes one colored line per record.
// Attributes follow the message as key=value pairs. Attributes added with
// WithAttrs are rendered once, when they are added.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	prefix string
	fixed  string
}

// NewPrettyHandler creates a new PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	h := &PrettyHandler{out: output.New(w), level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes r as a single line.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	glyph, color := markFor(r.Level)

	var b strings.Builder
	b.WriteString(glyph)
	b.WriteString(r.Message)
	b.WriteString(h.fixed)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})

	_, err := h.out.WriteString(h.out.String(b.String()).Foreground(color).String() + "\n")
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	c := *h
	c.fixed += b.String()
	return &c
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix += name + "."
	return &c
}

// appendAttr writes a as " key=value". Groups are flattened into dotted keys
// and empty attributes are skipped.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		// An inline group has no key of its own.
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, prefix, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(quoteValue(a.Value.String()))
}

// quoteValue quotes values that would otherwise be ambiguous on one line,
// such as paths containing spaces.
func quoteValue(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
