package ports

import "github.com/ziplock/relkit/internal/core/domain"

// Verifier validates a produced artifact: existence, size bounds,
// binary format/architecture, exported symbols. It attaches size and
// checksum to the artifact inside the returned verdict.
//
//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	Verify(artifact domain.Artifact) domain.VerificationVerdict
}
