package domain

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// argSeparator joins argument tuples into a single comparable string. It is a
// control character that cannot appear in import arguments written in a file.
const argSeparator = "\x1f"

// Args is an immutable, comparable argument tuple.
type Args struct {
	joined InternedString
	count  int
}

// NewArgs builds an argument tuple. A nil or empty slice yields the empty tuple.
func NewArgs(args []string) Args {
	if len(args) == 0 {
		return Args{}
	}
	return Args{
		joined: NewInternedString(strings.Join(args, argSeparator)),
		count:  len(args),
	}
}

// Values returns a fresh copy of the arguments.
func (a Args) Values() []string {
	if a.count == 0 {
		return nil
	}
	return strings.Split(a.joined.String(), argSeparator)
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return a.count
}

// Fingerprint returns a short stable digest of the tuple, used in log output.
func (a Args) Fingerprint() string {
	if a.count == 0 {
		return "-"
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(a.joined.String()))
}

// LibraryKey identifies a cached library: its resolved source and argument tuple.
type LibraryKey struct {
	Source InternedString
	Args   Args
}

// NewLibraryKey creates a LibraryKey.
func NewLibraryKey(source string, args []string) LibraryKey {
	return LibraryKey{Source: NewInternedString(source), Args: NewArgs(args)}
}

// String returns a printable form of the key.
func (k LibraryKey) String() string {
	return k.Source.String() + "#" + k.Args.Fingerprint()
}

// ResourceKey identifies a cached resource by its resolved file path.
type ResourceKey struct {
	Source InternedString
}

// NewResourceKey creates a ResourceKey.
func NewResourceKey(source string) ResourceKey {
	return ResourceKey{Source: NewInternedPath(source)}
}

// String returns a printable form of the key.
func (k ResourceKey) String() string {
	return k.Source.String()
}

// VariablesKey identifies a cached variables import: its resolved source and argument tuple.
type VariablesKey struct {
	Source InternedString
	Args   Args
}

// NewVariablesKey creates a VariablesKey.
func NewVariablesKey(source string, args []string) VariablesKey {
	return VariablesKey{Source: NewInternedString(source), Args: NewArgs(args)}
}

// String returns a printable form of the key.
func (k VariablesKey) String() string {
	return k.Source.String() + "#" + k.Args.Fingerprint()
}

// Referrer identifies an external owner whose continued interest keeps an
// entry cached, typically the URI of the document that declares the import.
// The empty Referrer means "no referrer".
type Referrer string
