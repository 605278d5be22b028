// Package imports caches the documents of library, resource and variables
// imports and keeps them consistent with the files they were computed from.
package imports

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/importcache/internal/engine/dispatcher"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.ChangeHandler = (*Manager)(nil)

// Deps are the collaborators of a Manager. Metrics and Tracer are optional.
type Deps struct {
	Resolver   ports.ImportResolver
	Docs       ports.DocumentationProvider
	Completer  ports.Completer
	Documents  ports.DocumentStore
	Parser     ports.ResourceParser
	Watcher    ports.FileWatcher
	Dispatcher *dispatcher.Dispatcher
	Logger     ports.Logger
	Metrics    ports.Metrics
	Tracer     ports.Tracer
}

// Manager owns the three entry tables and answers import lookups.
type Manager struct {
	search     domain.SearchConfig
	timeouts   domain.Timeouts
	resolver   ports.ImportResolver
	completer  ports.Completer
	dispatcher *dispatcher.Dispatcher
	log        ports.Logger
	metrics    ports.Metrics
	tracer     ports.Tracer

	libraries *table[domain.LibraryKey, *domain.LibraryDoc]
	resources *table[domain.ResourceKey, *domain.ResourceDoc]
	variables *table[domain.VariablesKey, *domain.VariablesDoc]

	libLoader *libraryLoader
	resLoader *resourceLoader
	varLoader *variablesLoader

	librariesChanged *notifier[*domain.LibraryDoc]
	resourcesChanged *notifier[*domain.ResourceDoc]
	variablesChanged *notifier[*domain.VariablesDoc]

	lookups singleflight.Group

	refMu    sync.Mutex
	releases map[domain.Referrer][]func(context.Context)

	closed atomic.Bool
}

// New creates a Manager for the given configuration.
func New(cfg *domain.Config, deps Deps) *Manager {
	m := &Manager{
		search:     cfg.Search,
		timeouts:   cfg.Timeouts,
		resolver:   deps.Resolver,
		completer:  deps.Completer,
		dispatcher: deps.Dispatcher,
		log:        deps.Logger,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,

		libraries: newTable[domain.LibraryKey, *domain.LibraryDoc](domain.KindLibrary),
		resources: newTable[domain.ResourceKey, *domain.ResourceDoc](domain.KindResource),
		variables: newTable[domain.VariablesKey, *domain.VariablesDoc](domain.KindVariables),

		librariesChanged: newNotifier[*domain.LibraryDoc](),
		resourcesChanged: newNotifier[*domain.ResourceDoc](),
		variablesChanged: newNotifier[*domain.VariablesDoc](),

		releases: make(map[domain.Referrer][]func(context.Context)),
	}
	if m.search.WorkspaceRoot == "" {
		m.search.WorkspaceRoot = cfg.Root
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = nopTracer{}
	}

	watches := watchSet{watcher: deps.Watcher, handler: m}
	m.libLoader = &libraryLoader{
		docs:       deps.Docs,
		dispatcher: deps.Dispatcher,
		timeout:    cfg.Timeouts.Load,
		watches:    watches,
	}
	m.varLoader = &variablesLoader{
		docs:       deps.Docs,
		dispatcher: deps.Dispatcher,
		timeout:    cfg.Timeouts.Load,
		watches:    watches,
	}
	m.resLoader = &resourceLoader{
		documents: deps.Documents,
		parser:    deps.Parser,
		watches:   watches,
		edited:    m.onResourceEdited,
	}
	return m
}

// GetLibrary returns the documentation of the library imported as name with args from baseDir.
// A non-empty referrer keeps the entry cached until it is released.
func (m *Manager) GetLibrary(
	ctx context.Context,
	name string,
	args []string,
	baseDir string,
	referrer domain.Referrer,
) (*domain.LibraryDoc, error) {
	ctx, span := m.startSpan(ctx, "imports.get_library", name)
	defer span.End()

	req := m.request(domain.KindLibrary, name, args, baseDir)
	resolved, err := m.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	key := domain.NewLibraryKey(resolved.Identity(), args)
	doc, err := getDocument(ctx, m, m.libraries, key, origin{req: req, resolved: resolved}, m.libLoader, referrer)
	if err != nil {
		span.RecordError(err)
	}
	return doc, err
}

// GetResource returns the namespace and documentation of the resource imported as name from baseDir.
func (m *Manager) GetResource(
	ctx context.Context,
	name string,
	baseDir string,
	referrer domain.Referrer,
) (*domain.Namespace, *domain.ResourceDoc, error) {
	ctx, span := m.startSpan(ctx, "imports.get_resource", name)
	defer span.End()

	req := m.request(domain.KindResource, name, nil, baseDir)
	resolved, err := m.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	if resolved.Source == "" {
		err := errors.Join(domain.ErrResolutionFailed, zerr.With(zerr.New("resource has no file"), "name", name))
		span.RecordError(err)
		return nil, nil, err
	}

	key := domain.NewResourceKey(resolved.Source)
	doc, err := getDocument(ctx, m, m.resources, key, origin{req: req, resolved: resolved}, m.resLoader, referrer)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	ns := doc.Namespace
	if ns == nil {
		ns = &domain.Namespace{Source: doc.Source}
	}
	return ns, doc, nil
}

// GetVariables returns the documentation of the variables imported as name with args from baseDir.
func (m *Manager) GetVariables(
	ctx context.Context,
	name string,
	args []string,
	baseDir string,
	referrer domain.Referrer,
) (*domain.VariablesDoc, error) {
	ctx, span := m.startSpan(ctx, "imports.get_variables", name)
	defer span.End()

	req := m.request(domain.KindVariables, name, args, baseDir)
	resolved, err := m.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	key := domain.NewVariablesKey(resolved.Identity(), args)
	doc, err := getDocument(ctx, m, m.variables, key, origin{req: req, resolved: resolved}, m.varLoader, referrer)
	if err != nil {
		span.RecordError(err)
	}
	return doc, err
}

// getDocument looks up or creates the entry for key and returns its document.
func getDocument[K comparable, D domain.Document](
	ctx context.Context,
	m *Manager,
	t *table[K, D],
	key K,
	s origin,
	l loader[K, D],
	referrer domain.Referrer,
) (D, error) {
	var zero D
	if m.closed.Load() {
		return zero, domain.ErrManagerClosed
	}

	for {
		e, added := t.getOrCreate(key, referrer, func() *entry[K, D] {
			return newEntry(key, t.kind, s, l, m.log)
		})
		if added {
			m.trackReferrer(referrer, func(ctx context.Context) {
				if t.release(ctx, key, e, referrer) {
					m.metrics.Evicted(t.kind)
					m.metrics.SetEntries(t.kind, t.len())
				}
			})
		}
		m.metrics.SetEntries(t.kind, t.len())

		start := time.Now()
		doc, hit, err := e.document(ctx)
		if errors.Is(err, errEntryRemoved) {
			if m.closed.Load() {
				return zero, domain.ErrManagerClosed
			}
			continue
		}
		if hit {
			m.metrics.CacheHit(t.kind)
		} else {
			m.metrics.CacheMiss(t.kind)
			m.metrics.ObserveCompute(t.kind, time.Since(start), err)
		}
		return doc, err
	}
}

// FindLibrary resolves a library import without loading it.
func (m *Manager) FindLibrary(ctx context.Context, name string, args []string, baseDir string) (*domain.ResolvedImport, error) {
	return m.resolve(ctx, m.request(domain.KindLibrary, name, args, baseDir))
}

// FindResource resolves a resource import without loading it.
func (m *Manager) FindResource(ctx context.Context, name string, baseDir string) (*domain.ResolvedImport, error) {
	return m.resolve(ctx, m.request(domain.KindResource, name, nil, baseDir))
}

// FindVariables resolves a variables import without loading it.
func (m *Manager) FindVariables(ctx context.Context, name string, args []string, baseDir string) (*domain.ResolvedImport, error) {
	return m.resolve(ctx, m.request(domain.KindVariables, name, args, baseDir))
}

// resolve maps req to its canonical identity on the dispatcher. Identical
// concurrent lookups share one resolution. Nothing is cached.
func (m *Manager) resolve(ctx context.Context, req domain.ImportRequest) (*domain.ResolvedImport, error) {
	if m.closed.Load() {
		return nil, domain.ErrManagerClosed
	}

	flightKey := req.Kind.String() + "\x00" + req.BaseDir + "\x00" + req.Name + "\x00" + domain.NewArgs(req.Args).Fingerprint()
	// The shared resolution outlives any single caller; each caller stops
	// waiting when its own context ends.
	flight := context.WithoutCancel(ctx)
	ch := m.lookups.DoChan(flightKey, func() (any, error) {
		return dispatcher.Run(flight, m.dispatcher, m.timeouts.Resolve, func(ctx context.Context) (*domain.ResolvedImport, error) {
			return m.resolver.Resolve(ctx, req)
		})
	})

	var v any
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		err = zerr.With(zerr.Wrap(err, req.Kind.String()+" import "+strconv.Quote(req.Name)), "base_dir", req.BaseDir)
		return nil, errors.Join(domain.ErrResolutionFailed, err)
	}

	resolved, _ := v.(*domain.ResolvedImport)
	if resolved == nil {
		return nil, errors.Join(domain.ErrResolutionFailed, zerr.With(zerr.Wrap(domain.ErrImportNotFound, "resolver returned no import"), "name", req.Name))
	}
	return resolved, nil
}

// CompleteLibrary lists library names matching partial. Results are not cached.
func (m *Manager) CompleteLibrary(ctx context.Context, partial, baseDir string) ([]domain.CompletionItem, error) {
	return m.complete(ctx, domain.KindLibrary, partial, baseDir)
}

// CompleteResource lists resource names matching partial. Results are not cached.
func (m *Manager) CompleteResource(ctx context.Context, partial, baseDir string) ([]domain.CompletionItem, error) {
	return m.complete(ctx, domain.KindResource, partial, baseDir)
}

// CompleteVariables lists variables names matching partial. Results are not cached.
func (m *Manager) CompleteVariables(ctx context.Context, partial, baseDir string) ([]domain.CompletionItem, error) {
	return m.complete(ctx, domain.KindVariables, partial, baseDir)
}

func (m *Manager) complete(ctx context.Context, kind domain.ImportKind, partial, baseDir string) ([]domain.CompletionItem, error) {
	if m.closed.Load() {
		return nil, domain.ErrManagerClosed
	}
	ctx, span := m.startSpan(ctx, "imports.complete_"+kind.String(), partial)
	defer span.End()

	items, err := dispatcher.Run(ctx, m.dispatcher, m.timeouts.Complete, func(ctx context.Context) ([]domain.CompletionItem, error) {
		return m.completer.Complete(ctx, kind, partial, baseDir, m.search)
	})
	if err != nil {
		span.RecordError(err)
		return nil, zerr.With(zerr.Wrap(err, "failed to complete "+kind.String()+" import"), "partial", partial)
	}
	return items, nil
}

// OnLibrariesChanged subscribes fn to library invalidations.
// The returned function cancels the subscription.
func (m *Manager) OnLibrariesChanged(fn Listener[*domain.LibraryDoc]) func() {
	return m.librariesChanged.subscribe(fn)
}

// OnResourcesChanged subscribes fn to resource invalidations.
func (m *Manager) OnResourcesChanged(fn Listener[*domain.ResourceDoc]) func() {
	return m.resourcesChanged.subscribe(fn)
}

// OnVariablesChanged subscribes fn to variables invalidations.
func (m *Manager) OnVariablesChanged(fn Listener[*domain.VariablesDoc]) func() {
	return m.variablesChanged.subscribe(fn)
}

// ClearCache drops every entry and notifies subscribers of the documents that were cached.
func (m *Manager) ClearCache(ctx context.Context) {
	libs := removeAll(ctx, m.libraries.drain())
	res := removeAll(ctx, m.resources.drain())
	vars := removeAll(ctx, m.variables.drain())

	m.refMu.Lock()
	m.releases = make(map[domain.Referrer][]func(context.Context))
	m.refMu.Unlock()

	for _, kind := range domain.ImportKinds {
		m.metrics.SetEntries(kind, 0)
	}

	m.librariesChanged.emit(ctx, libs)
	m.resourcesChanged.emit(ctx, res)
	m.variablesChanged.emit(ctx, vars)
}

// removeAll clears drained entries and returns the documents they held.
func removeAll[K comparable, D domain.Document](ctx context.Context, entries []*entry[K, D]) []D {
	var docs []D
	for _, e := range entries {
		if doc, ok := e.remove(ctx); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Stats is a snapshot of the cache.
type Stats struct {
	Libraries  TableStats       `json:"libraries"`
	Resources  TableStats       `json:"resources"`
	Variables  TableStats       `json:"variables"`
	Referrers  int              `json:"referrers"`
	Dispatcher dispatcher.Stats `json:"dispatcher"`
}

// Stats returns a snapshot of the cache.
func (m *Manager) Stats() Stats {
	m.refMu.Lock()
	referrers := len(m.releases)
	m.refMu.Unlock()

	return Stats{
		Libraries:  m.libraries.stats(),
		Resources:  m.resources.stats(),
		Variables:  m.variables.stats(),
		Referrers:  referrers,
		Dispatcher: m.dispatcher.Stats(),
	}
}

// Close releases every entry. Lookups after Close fail with domain.ErrManagerClosed.
func (m *Manager) Close(ctx context.Context) {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	removeAll(ctx, m.libraries.drain())
	removeAll(ctx, m.resources.drain())
	removeAll(ctx, m.variables.drain())
}

func (m *Manager) request(kind domain.ImportKind, name string, args []string, baseDir string) domain.ImportRequest {
	return domain.ImportRequest{
		Kind:    kind,
		Name:    name,
		Args:    args,
		BaseDir: baseDir,
		Search:  m.search,
	}
}

func (m *Manager) startSpan(ctx context.Context, op, name string) (context.Context, ports.Span) {
	ctx, span := m.tracer.Start(ctx, op)
	span.SetAttribute("import.name", name)
	return ctx, span
}
