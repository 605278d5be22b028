package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ImportKind identifies one of the three kinds of imports that share the cache protocol.
type ImportKind uint8

const (
	// KindLibrary is a keyword library import.
	KindLibrary ImportKind = iota
	// KindResource is a resource file import.
	KindResource
	// KindVariables is a variables file or module import.
	KindVariables
)

// ImportKinds lists all kinds in table order.
var ImportKinds = []ImportKind{KindLibrary, KindResource, KindVariables}

// String returns the lower-case name of the kind.
func (k ImportKind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindResource:
		return "resource"
	case KindVariables:
		return "variables"
	default:
		return "unknown"
	}
}

// ParseImportKind parses the textual name of a kind.
func ParseImportKind(s string) (ImportKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "library", "libraries":
		return KindLibrary, nil
	case "resource", "resources":
		return KindResource, nil
	case "variables", "variable":
		return KindVariables, nil
	default:
		return 0, zerr.With(zerr.Wrap(ErrUnknownImportKind, "cannot parse import kind"), "kind", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ImportKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ImportKind) UnmarshalText(text []byte) error {
	parsed, err := ParseImportKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
