package packaging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// ArchPackager builds an Arch Linux package via makepkg. The PKGBUILD
// is prepared by the version/checksum propagator before any packager
// runs; this packager only copies it into a build directory and invokes
// the tool.
type ArchPackager struct {
	runner      ports.Runner
	pkgbuild    string
	packageName string
}

// NewArchPackager creates an ArchPackager around the propagated
// PKGBUILD at the given path.
func NewArchPackager(runner ports.Runner, pkgbuild, packageName string) *ArchPackager {
	return &ArchPackager{runner: runner, pkgbuild: pkgbuild, packageName: packageName}
}

// Format implements ports.Packager.
func (p *ArchPackager) Format() domain.PackageFormat { return domain.FormatArch }

// Package copies the propagated PKGBUILD into a fresh build directory,
// runs makepkg and resolves the single produced package file.
func (p *ArchPackager) Package(ctx context.Context, in ports.PackageInput) (domain.PackageDescriptor, error) {
	if err := requireVerified(in); err != nil {
		return domain.PackageDescriptor{}, err
	}

	// Staging and output are keyed by architecture so concurrent
	// targets never share a build directory or match each other's
	// package files.
	arch := in.Artifacts[0].Target.CPUArch()
	buildDir := filepath.Join(in.OutputDir, "staging", "arch", arch)
	if err := os.RemoveAll(buildDir); err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to reset build directory")
	}
	if err := copyFile(p.pkgbuild, filepath.Join(buildDir, "PKGBUILD"), 0o644); err != nil {
		return domain.PackageDescriptor{}, err
	}

	outDir := filepath.Join(in.OutputDir, "packages", "arch")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to create output directory")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to resolve output directory")
	}

	if _, err := p.runner.Run(ctx, ports.RunRequest{
		Command: []string{"makepkg", "--force", "--noconfirm"},
		Dir:     buildDir,
		Env:     []string{"PKGDEST=" + absOut, "CARCH=" + arch},
	}); err != nil {
		return domain.PackageDescriptor{}, domain.WithHint(
			zerr.Wrap(errors.Join(domain.ErrPackage, err), "makepkg failed"),
			"install base-devel (pacman -S base-devel)")
	}

	output, err := expectOne(filepath.Join(outDir, fmt.Sprintf("%s-*-%s.pkg.tar.*", p.packageName, arch)))
	if err != nil {
		return domain.PackageDescriptor{}, err
	}

	return domain.PackageDescriptor{
		Format:       domain.FormatArch,
		Name:         p.packageName,
		Version:      in.Version.String(),
		Architecture: arch,
		Checksum:     in.Checksum,
		OutputPath:   output,
	}, nil
}
