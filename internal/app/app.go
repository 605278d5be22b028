// Package app implements the application layer for importcache.
package app

import (
	"context"
	"iter"
	"net/http"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.trai.ch/importcache/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/worker"    //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/importcache/internal/engine/dispatcher"
	"go.trai.ch/importcache/internal/engine/imports"
	"go.trai.ch/zerr"
)

// Watcher is the host file watcher driven by the app.
type Watcher interface {
	ports.FileWatcher
	SetDebounce(window time.Duration)
	Start(ctx context.Context) error
	Stop() error
}

// ResourceWalker lists the resource files of a workspace.
type ResourceWalker interface {
	ResourceFiles(root string) iter.Seq[string]
}

// Metrics records cache activity and serves it over HTTP.
type Metrics interface {
	ports.Metrics
	Handler() http.Handler
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	watcher      Watcher
	documents    ports.DocumentStore
	parser       ports.ResourceParser
	walker       ResourceWalker
	metrics      Metrics
	tracer       ports.Tracer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	w Watcher,
	documents ports.DocumentStore,
	parser ports.ResourceParser,
	walker ResourceWalker,
	metrics Metrics,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		watcher:      w,
		documents:    documents,
		parser:       parser,
		walker:       walker,
		metrics:      metrics,
		tracer:       tracer,
	}
}

// LogOptions configures diagnostics output.
type LogOptions struct {
	// Format is "auto", "pretty" or "json".
	Format string
	Quiet  bool
	// Trace logs every finished span.
	Trace bool
}

// Configure applies the diagnostics options.
func (a *App) Configure(opts LogOptions) {
	if l, ok := a.logger.(interface {
		SetFormat(flag string)
		SetQuiet(enable bool)
	}); ok {
		l.SetFormat(opts.Format)
		l.SetQuiet(opts.Quiet)
	}
	if opts.Trace {
		otel.SetTracerProvider(telemetry.NewLoggingProvider(a.logger))
	}
}

// Session is an imports manager opened for one workspace.
type Session struct {
	Config  *domain.Config
	Manager *imports.Manager

	dispatcher *dispatcher.Dispatcher
}

// Close releases every cached entry and stops accepting jobs.
func (s *Session) Close(ctx context.Context) {
	s.Manager.Close(ctx)
	s.dispatcher.Close()
}

// Open loads the configuration of the workspace containing dir and creates an
// imports manager for it.
func (a *App) Open(_ context.Context, dir string) (*Session, error) {
	// 1. Load the configuration
	cfg, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	// 2. Build the collaborators that depend on it
	client := worker.NewClient(cfg.Worker.Command, a.logger)
	pool := dispatcher.New(cfg.Worker.PoolSize)
	a.watcher.SetDebounce(cfg.Debounce)

	// 3. Create the manager
	manager := imports.New(cfg, imports.Deps{
		Resolver:   fs.NewResolver(client),
		Docs:       client,
		Completer:  fs.NewCompleter(client),
		Documents:  a.documents,
		Parser:     a.parser,
		Watcher:    a.watcher,
		Dispatcher: pool,
		Logger:     a.logger,
		Metrics:    a.metrics,
		Tracer:     a.tracer,
	})

	return &Session{Config: cfg, Manager: manager, dispatcher: pool}, nil
}

// LookupOptions selects the import to look up.
type LookupOptions struct {
	Kind domain.ImportKind
	Name string
	Args []string
	// BaseDir is the directory of the importing file. It defaults to the
	// directory the lookup runs in.
	BaseDir string
}

// LookupResult is the outcome of a single import lookup.
type LookupResult struct {
	Import    *domain.ResolvedImport `yaml:"import"`
	Library   *domain.LibraryDoc     `yaml:"library,omitempty"`
	Resource  *domain.ResourceDoc    `yaml:"resource,omitempty"`
	Variables *domain.VariablesDoc   `yaml:"variables,omitempty"`
}

// Lookup resolves one import from dir and loads its document.
func (a *App) Lookup(ctx context.Context, dir string, opts LookupOptions) (*LookupResult, error) {
	session, err := a.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer session.Close(context.WithoutCancel(ctx))

	baseDir, err := absDir(dir, opts.BaseDir)
	if err != nil {
		return nil, err
	}

	m := session.Manager
	result := &LookupResult{}
	switch opts.Kind {
	case domain.KindLibrary:
		if result.Import, err = m.FindLibrary(ctx, opts.Name, opts.Args, baseDir); err == nil {
			result.Library, err = m.GetLibrary(ctx, opts.Name, opts.Args, baseDir, "")
		}
	case domain.KindResource:
		if result.Import, err = m.FindResource(ctx, opts.Name, baseDir); err == nil {
			_, result.Resource, err = m.GetResource(ctx, opts.Name, baseDir, "")
		}
	case domain.KindVariables:
		if result.Import, err = m.FindVariables(ctx, opts.Name, opts.Args, baseDir); err == nil {
			result.Variables, err = m.GetVariables(ctx, opts.Name, opts.Args, baseDir, "")
		}
	default:
		err = zerr.With(zerr.Wrap(domain.ErrUnknownImportKind, "cannot look up import"), "kind", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Complete lists the import names of kind starting with partial.
func (a *App) Complete(
	ctx context.Context,
	dir string,
	kind domain.ImportKind,
	partial, baseDir string,
) ([]domain.CompletionItem, error) {
	session, err := a.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer session.Close(context.WithoutCancel(ctx))

	baseDir, err = absDir(dir, baseDir)
	if err != nil {
		return nil, err
	}

	m := session.Manager
	switch kind {
	case domain.KindLibrary:
		return m.CompleteLibrary(ctx, partial, baseDir)
	case domain.KindResource:
		return m.CompleteResource(ctx, partial, baseDir)
	case domain.KindVariables:
		return m.CompleteVariables(ctx, partial, baseDir)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownImportKind, "cannot complete import"), "kind", kind)
	}
}

// absDir returns dir joined with rel, made absolute.
func absDir(dir, rel string) (string, error) {
	path := dir
	if rel != "" {
		path = rel
		if !filepath.IsAbs(rel) {
			path = filepath.Join(dir, rel)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve base directory"), "dir", path)
	}
	return abs, nil
}
