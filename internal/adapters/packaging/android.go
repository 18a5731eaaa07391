package packaging

import (
	"context"
	"path/filepath"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
)

// AndroidPackager lays the shared library out in the jniLibs directory
// shape Android projects consume. No external tool is involved; the
// directory tree is the package.
type AndroidPackager struct {
	packageName string
}

// NewAndroidPackager creates an AndroidPackager.
func NewAndroidPackager(packageName string) *AndroidPackager {
	return &AndroidPackager{packageName: packageName}
}

// Format implements ports.Packager.
func (p *AndroidPackager) Format() domain.PackageFormat { return domain.FormatAndroid }

// Package copies each artifact into jniLibs/{abi}/. The ABI directory
// is the target's architecture name as requested (arm64-v8a and
// friends), not the normalized machine architecture.
func (p *AndroidPackager) Package(_ context.Context, in ports.PackageInput) (domain.PackageDescriptor, error) {
	if err := requireVerified(in); err != nil {
		return domain.PackageDescriptor{}, err
	}

	artifact := in.Artifacts[0]
	abiDir := filepath.Join(in.OutputDir, "jniLibs", artifact.Target.Arch)
	dest := filepath.Join(abiDir, libraryName(artifact.Target.Platform))
	if err := copyFile(artifact.Path, dest, 0o644); err != nil {
		return domain.PackageDescriptor{}, err
	}

	return domain.PackageDescriptor{
		Format:       domain.FormatAndroid,
		Name:         p.packageName,
		Version:      in.Version.String(),
		Architecture: artifact.Target.Arch,
		Checksum:     in.Checksum,
		OutputPath:   abiDir,
	}, nil
}
