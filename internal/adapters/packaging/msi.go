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

// MsiPackager builds a Windows installer with the WiX toolset. The app
// layer only wires it up when the WiX toolchain was probed as
// available; otherwise MSI creation is skipped with a warning.
type MsiPackager struct {
	runner      ports.Runner
	templateDir string
	packageName string
}

// NewMsiPackager creates an MsiPackager. templateDir holds the WXS
// template.
func NewMsiPackager(runner ports.Runner, templateDir, packageName string) *MsiPackager {
	return &MsiPackager{runner: runner, templateDir: templateDir, packageName: packageName}
}

// Format implements ports.Packager.
func (p *MsiPackager) Format() domain.PackageFormat { return domain.FormatMSI }

// Package renders the WXS descriptor, stages the DLL next to it and
// invokes the WiX builder.
func (p *MsiPackager) Package(ctx context.Context, in ports.PackageInput) (domain.PackageDescriptor, error) {
	if err := requireVerified(in); err != nil {
		return domain.PackageDescriptor{}, err
	}

	// Staging and the installer filename are keyed by architecture so
	// the two Windows targets never collapse onto one MSI.
	artifact := in.Artifacts[0]
	arch := artifact.Target.CPUArch()
	stage := filepath.Join(in.OutputDir, "staging", "msi", arch)
	if err := os.RemoveAll(stage); err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to reset staging directory")
	}

	vars := Variables{
		Name:         p.packageName,
		Version:      in.Version.String(),
		Architecture: arch,
		Checksum:     in.Checksum,
		Description:  "ziplock password manager",
	}

	wxs := filepath.Join(stage, "installer.wxs")
	if err := Render(filepath.Join(p.templateDir, "installer.wxs.tmpl"), wxs, vars); err != nil {
		return domain.PackageDescriptor{}, err
	}
	if err := copyFile(artifact.Path, filepath.Join(stage, libraryName(artifact.Target.Platform)), 0o644); err != nil {
		return domain.PackageDescriptor{}, err
	}

	outDir := filepath.Join(in.OutputDir, "packages", "msi")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.PackageDescriptor{}, zerr.Wrap(err, "failed to create output directory")
	}

	msi := filepath.Join(outDir, fmt.Sprintf("%s-%s-%s.msi", p.packageName, in.Version, arch))
	if _, err := p.runner.Run(ctx, ports.RunRequest{
		Command: []string{"wix", "build", wxs, "-o", msi},
		Dir:     stage,
	}); err != nil {
		return domain.PackageDescriptor{}, domain.WithHint(
			zerr.Wrap(errors.Join(domain.ErrPackage, err), "wix build failed"),
			"install the WiX toolset (dotnet tool install --global wix)")
	}

	output, err := expectOne(filepath.Join(outDir, fmt.Sprintf("%s-*-%s.msi", p.packageName, arch)))
	if err != nil {
		return domain.PackageDescriptor{}, err
	}

	return domain.PackageDescriptor{
		Format:       domain.FormatMSI,
		Name:         p.packageName,
		Version:      in.Version.String(),
		Architecture: arch,
		Checksum:     in.Checksum,
		OutputPath:   output,
	}, nil
}
