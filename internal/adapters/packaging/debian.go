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

// debDependencies are the runtime dependencies declared in the control
// file.
var debDependencies = []string{"libc6 (>= 2.31)"}

// DebPackager builds a Debian package around the shared library using
// dpkg-deb.
type DebPackager struct {
	runner      ports.Runner
	templateDir string
	packageName string
}

// NewDebPackager creates a DebPackager. templateDir holds the control
// template and the opaque maintainer scripts.
func NewDebPackager(runner ports.Runner, templateDir, packageName string) *DebPackager {
	return &DebPackager{runner: runner, templateDir: templateDir, packageName: packageName}
}

// Format implements ports.Packager.
func (p *DebPackager) Format() domain.PackageFormat { return domain.FormatDeb }

// Package stages the Debian directory layout, renders the control file,
// invokes dpkg-deb and resolves the single produced .deb.
func (p *DebPackager) Package(ctx context.Context, in ports.PackageInput) (domain.PackageDescriptor, error) {
	if err := requireVerified(in); err != nil {
		return domain.PackageDescriptor{}, err
	}

	artifact := in.Artifacts[0]
	arch := debArch(artifact.Target.CPUArch())
	stageName := fmt.Sprintf("%s_%s_%s", p.packageName, in.Version, arch)
	stage := filepath.Join(in.OutputDir, "staging", "deb", stageName)
	if err := os.RemoveAll(stage); err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to reset staging directory")
	}

	vars := Variables{
		Name:         p.packageName,
		Version:      in.Version.String(),
		Architecture: arch,
		Checksum:     in.Checksum,
		Dependencies: debDependencies,
		Description:  "Shared library for the ziplock password manager",
	}

	if err := Render(filepath.Join(p.templateDir, "control.tmpl"),
		filepath.Join(stage, "DEBIAN", "control"), vars); err != nil {
		return domain.PackageDescriptor{}, err
	}

	// Maintainer scripts are opaque payloads; only the whitelisted
	// variables are substituted into them.
	for _, script := range []string{"postinst", "prerm"} {
		src := filepath.Join(p.templateDir, script+".tmpl")
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dest := filepath.Join(stage, "DEBIAN", script)
		if err := Render(src, dest, vars); err != nil {
			return domain.PackageDescriptor{}, err
		}
		if err := os.Chmod(dest, 0o755); err != nil {
			return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to mark script executable")
		}
	}

	libDest := filepath.Join(stage, "usr", "lib", libraryName(artifact.Target.Platform))
	if err := copyFile(artifact.Path, libDest, 0o644); err != nil {
		return domain.PackageDescriptor{}, err
	}

	outDir := filepath.Join(in.OutputDir, "packages", "deb")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to create output directory")
	}

	if _, err := p.runner.Run(ctx, ports.RunRequest{
		Command: []string{"dpkg-deb", "--build", "--root-owner-group", stage, outDir},
		Dir:     in.WorkDir,
	}); err != nil {
		return domain.PackageDescriptor{}, domain.WithHint(
			zerr.Wrap(errors.Join(domain.ErrPackage, err), "dpkg-deb failed"),
			"install dpkg (apt install dpkg)")
	}

	output, err := expectOne(filepath.Join(outDir, fmt.Sprintf("%s_*_%s.deb", p.packageName, arch)))
	if err != nil {
		return domain.PackageDescriptor{}, err
	}

	return domain.PackageDescriptor{
		Format:       domain.FormatDeb,
		Name:         p.packageName,
		Version:      in.Version.String(),
		Architecture: arch,
		Dependencies: debDependencies,
		Checksum:     in.Checksum,
		OutputPath:   output,
	}, nil
}
