package domain

// DocError is a problem recorded inside a successfully produced document.
type DocError struct {
	Message  string `json:"message" yaml:"message"`
	TypeName string `json:"typeName" yaml:"typeName"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Document is the part of a cached result the cache itself relies on.
type Document interface {
	// SourcePath returns the file the document was produced from, or "" when
	// the import has no filesystem location.
	SourcePath() string
	// Problems returns the errors recorded while producing the document.
	Problems() []DocError
}

// KeywordDoc describes one keyword.
type KeywordDoc struct {
	Name   string   `json:"name" yaml:"name"`
	Args   []string `json:"args,omitempty" yaml:"args,omitempty"`
	Doc    string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	Source string   `json:"source,omitempty" yaml:"source,omitempty"`
	Line   int      `json:"line,omitempty" yaml:"line,omitempty"`
}

// VariableDoc describes one variable.
type VariableDoc struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// LibraryDoc is the documentation of a keyword library.
type LibraryDoc struct {
	Name    string `json:"name" yaml:"name"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Doc     string `json:"doc,omitempty" yaml:"doc,omitempty"`
	// SearchLocations is set when the library is a package; changes below any
	// of these directories affect it.
	SearchLocations []string     `json:"searchLocations,omitempty" yaml:"searchLocations,omitempty"`
	Keywords        []KeywordDoc `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Errors          []DocError   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SourcePath implements Document.
func (d *LibraryDoc) SourcePath() string { return d.Source }

// Problems implements Document.
func (d *LibraryDoc) Problems() []DocError { return d.Errors }

// ImportRef is an import statement found in a resource file.
type ImportRef struct {
	Kind ImportKind `json:"kind" yaml:"kind"`
	Name string     `json:"name" yaml:"name"`
	Args []string   `json:"args,omitempty" yaml:"args,omitempty"`
	Line int        `json:"line" yaml:"line"`
}

// Namespace is the import surface of a resource file.
type Namespace struct {
	Source  string      `json:"source" yaml:"source"`
	Imports []ImportRef `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// ResourceDoc is the documentation of a resource file.
type ResourceDoc struct {
	Name      string        `json:"name" yaml:"name"`
	Source    string        `json:"source" yaml:"source"`
	Doc       string        `json:"doc,omitempty" yaml:"doc,omitempty"`
	Version   int           `json:"version,omitempty" yaml:"version,omitempty"`
	// Versioned is true when the document was produced from a live-edited
	// buffer rather than from the file on disk.
	Versioned bool          `json:"versioned,omitempty" yaml:"versioned,omitempty"`
	Keywords  []KeywordDoc  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Variables []VariableDoc `json:"variables,omitempty" yaml:"variables,omitempty"`
	Errors    []DocError    `json:"errors,omitempty" yaml:"errors,omitempty"`
	Namespace *Namespace    `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// SourcePath implements Document.
func (d *ResourceDoc) SourcePath() string { return d.Source }

// Problems implements Document.
func (d *ResourceDoc) Problems() []DocError { return d.Errors }

// VariablesDoc is the documentation of a variables import.
type VariablesDoc struct {
	Name      string        `json:"name" yaml:"name"`
	Source    string        `json:"source,omitempty" yaml:"source,omitempty"`
	Variables []VariableDoc `json:"variables,omitempty" yaml:"variables,omitempty"`
	Errors    []DocError    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SourcePath implements Document.
func (d *VariablesDoc) SourcePath() string { return d.Source }

// Problems implements Document.
func (d *VariablesDoc) Problems() []DocError { return d.Errors }

// CompletionItem is one import-name completion candidate.
type CompletionItem struct {
	Label  string `json:"label" yaml:"label"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// TextDocument is a document as seen by the host's document store.
type TextDocument struct {
	Path string
	Text string
	// Version is the editor version of a live-edited document.
	Version int
	// Versioned is true while the document is open in an editor; its content
	// may differ from the file on disk.
	Versioned bool
}
