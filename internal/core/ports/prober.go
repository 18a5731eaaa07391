package ports

import (
	"context"

	"github.com/ziplock/relkit/internal/core/domain"
)

// Prober detects available external tools and their versions. It
// reports capability, not intent: a missing tool is data, never an
// error.
//
//go:generate go run go.uber.org/mock/mockgen -source=prober.go -destination=mocks/mock_prober.go -package=mocks
type Prober interface {
	Probe(ctx context.Context, tool string) domain.ToolProbe
}
