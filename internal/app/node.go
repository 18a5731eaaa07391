package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/ziplock/relkit/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"github.com/ziplock/relkit/internal/adapters/inspect"   //nolint:depguard // Wired in app layer
	"github.com/ziplock/relkit/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"github.com/ziplock/relkit/internal/adapters/probe"     //nolint:depguard // Wired in app layer
	"github.com/ziplock/relkit/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"github.com/ziplock/relkit/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"github.com/ziplock/relkit/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the main App Graft node.
	NodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.NodeID,
			shell.NodeID,
			probe.NodeID,
			inspect.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[*config.Loader](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			runner, err := graft.Dep[ports.Runner](ctx)
			if err != nil {
				return nil, err
			}

			prober, err := graft.Dep[ports.Prober](ctx)
			if err != nil {
				return nil, err
			}

			inspector, err := graft.Dep[ports.Inspector](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, log, tel, runner, prober, inspector), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			NodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:       application,
		Logger:    log,
		Telemetry: tel,
	}, nil
}
