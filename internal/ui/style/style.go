// Package style provides the colors and glyphs shared by the log handler and
// the command line output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/importcache/internal/core/domain"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Teal   = lipgloss.Color("#0EA5A4")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
)

// Text styles.
var (
	Heading = lipgloss.NewStyle().Bold(true).Foreground(Iris)
	Muted   = lipgloss.NewStyle().Foreground(Slate)
	Failure = lipgloss.NewStyle().Foreground(Red)
)

// Kind returns the style used to label imports of kind k.
func Kind(k domain.ImportKind) lipgloss.Style {
	switch k {
	case domain.KindLibrary:
		return lipgloss.NewStyle().Foreground(Iris)
	case domain.KindResource:
		return lipgloss.NewStyle().Foreground(Teal)
	case domain.KindVariables:
		return lipgloss.NewStyle().Foreground(Yellow)
	default:
		return Muted
	}
}
