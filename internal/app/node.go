package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/importcache/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/documents" //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/robotfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/importcache/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			watcher.NodeID,
			documents.NodeID,
			robotfile.NodeID,
			fs.WalkerNodeID,
			metrics.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[*watcher.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	docs, err := graft.Dep[*documents.Store](ctx)
	if err != nil {
		return nil, err
	}

	parser, err := graft.Dep[*robotfile.Parser](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[*metrics.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, w, docs, parser, walker, m, tracer), nil
}
