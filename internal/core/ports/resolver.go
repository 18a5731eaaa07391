package ports

import (
	"context"

	"github.com/ziplock/relkit/internal/core/domain"
)

// ToolchainResolver maps a build target to an ordered fallback chain of
// toolchain descriptors. The first descriptor is the preferred build
// environment; later entries are tried only after the previous one
// failed.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ToolchainResolver interface {
	Chains(ctx context.Context, workDir string, target domain.BuildTarget) ([]domain.ToolchainDescriptor, error)
}
