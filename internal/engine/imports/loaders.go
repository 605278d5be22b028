package imports

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/importcache/internal/engine/dispatcher"
	"go.trai.ch/zerr"
)

// watchSet registers directory or file watches on behalf of the manager.
type watchSet struct {
	watcher ports.FileWatcher
	handler ports.ChangeHandler
}

func (w watchSet) add(ctx context.Context, patterns []string) ([]release, error) {
	if w.watcher == nil || len(patterns) == 0 {
		return nil, nil
	}
	handle, err := w.watcher.AddFileWatchers(ctx, w.handler, patterns)
	if err != nil {
		return nil, errors.Join(domain.ErrWatcherRegistrationFailed, zerr.With(zerr.Wrap(err, "watcher rejected patterns"), "patterns", patterns))
	}
	return []release{func(ctx context.Context) error {
		return w.watcher.RemoveFileWatcher(ctx, handle)
	}}, nil
}

// libraryLoader computes library documentation out of process.
type libraryLoader struct {
	docs       ports.DocumentationProvider
	dispatcher *dispatcher.Dispatcher
	timeout    time.Duration
	watches    watchSet
}

func (l *libraryLoader) load(ctx context.Context, _ domain.LibraryKey, s origin) (*domain.LibraryDoc, error) {
	doc, err := dispatcher.Run(ctx, l.dispatcher, l.timeout, func(ctx context.Context) (*domain.LibraryDoc, error) {
		return l.docs.LibraryDoc(ctx, s.req)
	})
	if err != nil {
		return nil, computeError(ctx, err, s)
	}
	if doc == nil {
		return nil, computeError(ctx, zerr.New("worker returned no library documentation"), s)
	}
	if doc.Source == "" {
		doc.Source = s.resolved.Source
	}
	if len(doc.SearchLocations) == 0 {
		doc.SearchLocations = s.resolved.SearchLocations
	}
	return doc, nil
}

func (l *libraryLoader) watch(ctx context.Context, _ domain.LibraryKey, s origin, doc *domain.LibraryDoc) ([]release, error) {
	roots := libraryRoots(s, doc)
	patterns := make([]string, 0, len(roots))
	for _, root := range roots {
		patterns = append(patterns, treePattern(root))
	}
	return l.watches.add(ctx, patterns)
}

func (l *libraryLoader) affects(s origin, doc *domain.LibraryDoc, path string) bool {
	return underAny(path, libraryRoots(s, doc))
}

// libraryRoots returns the directories whose contents a library depends on:
// the package search locations, else the directory of its source file, else
// every configured search root so that the library appearing later is noticed.
func libraryRoots(s origin, doc *domain.LibraryDoc) []string {
	if len(doc.SearchLocations) > 0 {
		return doc.SearchLocations
	}
	if doc.Source != "" {
		return []string{filepath.Dir(doc.Source)}
	}
	return searchRoots(s.req.Search)
}

// variablesLoader computes variables documentation out of process.
type variablesLoader struct {
	docs       ports.DocumentationProvider
	dispatcher *dispatcher.Dispatcher
	timeout    time.Duration
	watches    watchSet
}

func (l *variablesLoader) load(ctx context.Context, _ domain.VariablesKey, s origin) (*domain.VariablesDoc, error) {
	doc, err := dispatcher.Run(ctx, l.dispatcher, l.timeout, func(ctx context.Context) (*domain.VariablesDoc, error) {
		return l.docs.VariablesDoc(ctx, s.req)
	})
	if err != nil {
		return nil, computeError(ctx, err, s)
	}
	if doc == nil {
		return nil, computeError(ctx, zerr.New("worker returned no variables documentation"), s)
	}
	if doc.Source == "" {
		doc.Source = s.resolved.Source
	}
	return doc, nil
}

func (l *variablesLoader) watch(ctx context.Context, _ domain.VariablesKey, s origin, doc *domain.VariablesDoc) ([]release, error) {
	if doc.Source == "" {
		patterns := make([]string, 0)
		for _, root := range searchRoots(s.req.Search) {
			patterns = append(patterns, treePattern(root))
		}
		return l.watches.add(ctx, patterns)
	}
	return l.watches.add(ctx, []string{filePattern(doc.Source)})
}

func (l *variablesLoader) affects(s origin, doc *domain.VariablesDoc, path string) bool {
	if doc.Source == "" {
		return underAny(path, searchRoots(s.req.Search))
	}
	return samePath(path, doc.Source)
}

// resourceLoader loads resources through the host's document store.
type resourceLoader struct {
	documents ports.DocumentStore
	parser    ports.ResourceParser
	watches   watchSet
	// edited is called when a live-edited resource changes.
	edited func(ctx context.Context, key domain.ResourceKey)
}

func (l *resourceLoader) load(ctx context.Context, _ domain.ResourceKey, s origin) (*domain.ResourceDoc, error) {
	text, err := l.documents.Open(ctx, s.resolved.Source)
	if err != nil {
		return nil, errors.Join(domain.ErrDocumentOpenFailed, zerr.With(zerr.Wrap(err, "document store"), "source", s.resolved.Source))
	}

	doc, err := l.parser.ParseResource(ctx, text)
	if err != nil {
		return nil, errors.Join(domain.ErrComputeFailed, zerr.With(zerr.Wrap(err, "resource parser"), "source", s.resolved.Source))
	}
	if doc.Source == "" {
		doc.Source = s.resolved.Source
	}
	doc.Version = text.Version
	doc.Versioned = text.Versioned
	return doc, nil
}

// watch subscribes to edits of the document. Only resources read from disk
// also get a file watcher; live-edited ones are invalidated by their edits.
func (l *resourceLoader) watch(ctx context.Context, key domain.ResourceKey, _ origin, doc *domain.ResourceDoc) ([]release, error) {
	unsubscribe := l.documents.Subscribe(doc.Source, func(ctx context.Context, _ *domain.TextDocument) {
		l.edited(ctx, key)
	})
	releases := []release{func(context.Context) error {
		unsubscribe()
		return nil
	}}

	// Edits made between loading and subscribing were not seen by anyone.
	current, err := l.documents.Open(ctx, doc.Source)
	if err == nil && (current.Versioned != doc.Versioned || current.Version != doc.Version) {
		return releases, errStaleDocument
	}

	if doc.Versioned {
		return releases, nil
	}

	fileReleases, err := l.watches.add(ctx, []string{filePattern(doc.Source)})
	return append(releases, fileReleases...), err
}

func (l *resourceLoader) affects(_ origin, doc *domain.ResourceDoc, path string) bool {
	return samePath(path, doc.Source)
}

// computeError classifies a failed computation. Timeouts and cancellation
// keep their identity, anything else becomes domain.ErrComputeFailed.
func computeError(ctx context.Context, err error, s origin) error {
	if errors.Is(err, domain.ErrComputeTimeout) || ctx.Err() != nil {
		return zerr.With(zerr.Wrap(err, "failed to load "+s.req.Kind.String()), "name", s.req.Name)
	}
	if errors.Is(err, domain.ErrComputeFailed) {
		return err
	}
	return errors.Join(domain.ErrComputeFailed, zerr.With(zerr.Wrap(err, "failed to load "+s.req.Kind.String()), "name", s.req.Name))
}

func searchRoots(search domain.SearchConfig) []string {
	if len(search.SearchPaths) > 0 {
		return search.SearchPaths
	}
	if search.WorkspaceRoot != "" {
		return []string{search.WorkspaceRoot}
	}
	return nil
}

func underAny(path string, roots []string) bool {
	path = filepath.Clean(path)
	for _, root := range roots {
		root = filepath.Clean(root)
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
		if root == string(filepath.Separator) {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func treePattern(root string) string {
	return filepath.Join(escapeGlob(filepath.Clean(root)), "**")
}

func filePattern(path string) string {
	return escapeGlob(filepath.Clean(path))
}

// escapeGlob quotes glob metacharacters so a literal path matches only itself.
func escapeGlob(path string) string {
	if !strings.ContainsAny(path, `*?[]{}\`) {
		return path
	}
	var b strings.Builder
	for _, r := range path {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
