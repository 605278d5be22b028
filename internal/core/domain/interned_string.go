package domain

import (
	"path/filepath"
	"unique"
)

// InternedString wraps a unique.Handle[string].
// Cache keys and change events repeat the same paths many times, so they are
// interned once and compared by handle.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedPath interns the cleaned form of a filesystem path.
// An empty path stays empty.
func NewInternedPath(p string) InternedString {
	if p == "" {
		return InternedString{}
	}
	return NewInternedString(filepath.Clean(p))
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never set.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}
