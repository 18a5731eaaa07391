package ports

import (
	"context"

	"github.com/ziplock/relkit/internal/core/domain"
)

// PackageInput is the common input to every packager: verified
// artifacts plus the run's single version/checksum pair.
type PackageInput struct {
	Artifacts []domain.Artifact
	Version   domain.ReleaseVersion
	Checksum  string
	WorkDir   string
	OutputDir string
}

// Packager turns verified artifacts into one platform-native package.
// One implementation exists per package format. A packager must refuse
// input whose artifacts were not verified as passed.
//
//go:generate go run go.uber.org/mock/mockgen -source=packager.go -destination=mocks/mock_packager.go -package=mocks
type Packager interface {
	// Format reports which package format this packager produces.
	Format() domain.PackageFormat

	// Package lays out the artifacts, renders metadata and invokes the
	// external packaging tool. It must verify the tool produced
	// exactly one output file of the expected name pattern.
	Package(ctx context.Context, in PackageInput) (domain.PackageDescriptor, error)
}
