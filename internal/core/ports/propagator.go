package ports

import (
	"context"

	"github.com/ziplock/relkit/internal/core/domain"
)

// Propagator establishes the run's single (version, checksum) pair and
// pushes it into every packaging template. Prepare must complete before
// any packager runs, for any target; this is a global barrier.
//
//go:generate go run go.uber.org/mock/mockgen -source=propagator.go -destination=mocks/mock_propagator.go -package=mocks
type Propagator interface {
	// Prepare reads the release version from the canonical manifest,
	// computes the source checksum and rewrites the packaging
	// templates. Repeat calls re-verify the source tree.
	Prepare(ctx context.Context) (domain.ReleaseVersion, string, error)

	// Validate rejects any descriptor set whose (version, checksum)
	// pairs diverge from the pair established by Prepare.
	Validate(descriptors []domain.PackageDescriptor) error
}
