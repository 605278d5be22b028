package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/engine/imports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// reloadQueue bounds the resources waiting to be loaded again after a change.
	reloadQueue = 256
	// shutdownTimeout bounds the graceful shutdown of the metrics server.
	shutdownTimeout = 5 * time.Second
)

// WatchOptions configures the watch loop.
type WatchOptions struct {
	// MetricsAddr is the listen address of the Prometheus endpoint, empty to disable it.
	MetricsAddr string
	// Ready is called once the workspace is loaded and changes are being watched.
	Ready func(WatchStatus)
}

// WatchStatus describes a running watch loop.
type WatchStatus struct {
	// MetricsAddr is the address the metrics endpoint listens on.
	MetricsAddr string
	// Resources is the number of resource files loaded.
	Resources int
	Stats     imports.Stats
}

// Watch loads every resource file of the workspace containing dir together
// with its imports, then keeps them cached until ctx is cancelled. Changed
// resources are loaded again so their imports stay registered.
func (a *App) Watch(ctx context.Context, dir string, opts WatchOptions) error {
	// 1. Open the workspace
	session, err := a.Open(ctx, dir)
	if err != nil {
		return err
	}
	defer session.Close(context.WithoutCancel(ctx))

	// 2. Start watching files
	if err := a.watcher.Start(ctx); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to stop file watcher: %v", err))
		}
	}()

	// 3. Report invalidations
	reload := make(chan string, reloadQueue)
	for _, unsubscribe := range a.subscribe(session.Manager, reload) {
		defer unsubscribe()
	}

	g, ctx := errgroup.WithContext(ctx)
	status := WatchStatus{}

	// 4. Serve metrics
	if opts.MetricsAddr != "" {
		ln, err := net.Listen("tcp", opts.MetricsAddr)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to listen for metrics"), "addr", opts.MetricsAddr)
		}
		status.MetricsAddr = ln.Addr().String()
		a.serveMetrics(ctx, g, ln)
	}

	// 5. Preload the workspace and reload what changes
	g.Go(func() error {
		for path := range a.walker.ResourceFiles(session.Config.Root) {
			if ctx.Err() != nil {
				return nil
			}
			a.loadResource(ctx, session.Manager, path)
			status.Resources++
		}
		a.logger.Info(fmt.Sprintf("watching %d resource file(s) in %s", status.Resources, session.Config.Root))
		if opts.Ready != nil {
			status.Stats = session.Manager.Stats()
			opts.Ready(status)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-reload:
				session.Manager.Release(ctx, domain.Referrer(path))
				a.loadResource(ctx, session.Manager, path)
			}
		}
	})

	return g.Wait()
}

// subscribe logs invalidated documents and queues changed resources for reloading.
func (a *App) subscribe(m *imports.Manager, reload chan<- string) []func() {
	return []func(){
		m.OnLibrariesChanged(func(_ context.Context, docs []*domain.LibraryDoc) {
			for _, doc := range docs {
				a.logger.Info(fmt.Sprintf("library %s changed", doc.Name))
			}
		}),
		m.OnVariablesChanged(func(_ context.Context, docs []*domain.VariablesDoc) {
			for _, doc := range docs {
				a.logger.Info(fmt.Sprintf("variables %s changed", doc.Source))
			}
		}),
		m.OnResourcesChanged(func(_ context.Context, docs []*domain.ResourceDoc) {
			for _, doc := range docs {
				a.logger.Info(fmt.Sprintf("resource %s changed", doc.Source))
				select {
				case reload <- doc.Source:
				default:
					a.logger.Warn(fmt.Sprintf("reload queue full, %s stays unloaded", doc.Source))
				}
			}
		}),
	}
}

// loadResource loads the resource at path and every import it declares, all
// referred to by the resource itself.
func (a *App) loadResource(ctx context.Context, m *imports.Manager, path string) {
	referrer := domain.Referrer(path)
	baseDir := filepath.Dir(path)

	ns, _, err := m.GetResource(ctx, path, baseDir, referrer)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Warn(fmt.Sprintf("%s: %v", path, err))
		}
		return
	}

	for _, ref := range ns.Imports {
		var err error
		switch ref.Kind {
		case domain.KindLibrary:
			_, err = m.GetLibrary(ctx, ref.Name, ref.Args, baseDir, referrer)
		case domain.KindResource:
			_, _, err = m.GetResource(ctx, ref.Name, baseDir, referrer)
		case domain.KindVariables:
			_, err = m.GetVariables(ctx, ref.Name, ref.Args, baseDir, referrer)
		}
		if err != nil && ctx.Err() == nil {
			a.logger.Warn(fmt.Sprintf("%s:%d: %s %s: %v", path, ref.Line, ref.Kind, ref.Name, err))
		}
	}
}

func (a *App) serveMetrics(ctx context.Context, g *errgroup.Group, ln net.Listener) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	g.Go(func() error {
		a.logger.Info(fmt.Sprintf("serving metrics on http://%s/metrics", ln.Addr()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return zerr.Wrap(err, "metrics server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
