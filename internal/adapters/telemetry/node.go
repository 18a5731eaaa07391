package telemetry

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"github.com/ziplock/relkit/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Telemetry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Telemetry, error) {
			// RELKIT_NO_PROGRESS disables the progress UI, for CI logs.
			if os.Getenv("RELKIT_NO_PROGRESS") != "" {
				return NewNoop(), nil
			}
			return New(), nil
		},
	})
}
