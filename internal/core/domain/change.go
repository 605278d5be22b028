package domain

// ChangeKind is the type of a filesystem change. Values match the LSP
// FileChangeType numbering.
type ChangeKind uint8

const (
	// ChangeCreated indicates a file was created.
	ChangeCreated ChangeKind = iota + 1
	// ChangeModified indicates a file was modified.
	ChangeModified
	// ChangeDeleted indicates a file was deleted.
	ChangeDeleted
)

// String returns the lower-case name of the change kind.
func (c ChangeKind) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is a single entry of a change batch.
type FileChange struct {
	Path string
	Kind ChangeKind
}
