// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/ziplock/relkit/internal/adapters/config"
	_ "github.com/ziplock/relkit/internal/adapters/inspect"
	_ "github.com/ziplock/relkit/internal/adapters/logger"
	_ "github.com/ziplock/relkit/internal/adapters/probe"
	_ "github.com/ziplock/relkit/internal/adapters/shell"
	_ "github.com/ziplock/relkit/internal/adapters/telemetry"
	// Register the app node.
	_ "github.com/ziplock/relkit/internal/app"
)
