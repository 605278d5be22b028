package logger

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Format selects the log handler.
type Format string

const (
	// FormatAuto picks pretty output on an interactive terminal and JSON otherwise.
	FormatAuto Format = "auto"
	// FormatPretty forces coloured human-readable output.
	FormatPretty Format = "pretty"
	// FormatJSON forces one JSON object per line.
	FormatJSON Format = "json"
)

// DetectFormat returns the format suited to w. Terminals get pretty output
// unless a CI environment is detected; pipes, files and buffers get JSON.
func DetectFormat(w io.Writer) Format {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return FormatJSON
	}

	ci := os.Getenv("CI")
	if ci == "true" || ci == "1" {
		return FormatJSON
	}
	return FormatPretty
}

// ResolveFormat applies the user's choice to the detected format.
// Unknown values fall back to detection.
func ResolveFormat(detected Format, flag string) Format {
	switch Format(flag) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return detected
	}
}

// SetFormat selects the handler from a user flag value ("auto", "pretty" or "json").
func (l *Logger) SetFormat(flag string) {
	l.mu.RLock()
	out := l.output
	l.mu.RUnlock()

	l.SetJSON(ResolveFormat(DetectFormat(out), flag) == FormatJSON)
}
