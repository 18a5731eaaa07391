package packaging_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziplock/relkit/internal/adapters/packaging"
	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"github.com/ziplock/relkit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// propagatedPKGBUILD stands in for a PKGBUILD already rewritten by the
// version propagator.
func propagatedPKGBUILD(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "PKGBUILD")
	content := "pkgname=ziplock\npkgver=0.3.0\npkgrel=1\nsha256sums=('" + testChecksum + "')\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestArchPackage_StagesAndInvokesMakepkg(t *testing.T) {
	ctrl := gomock.NewController(t)
	outputDir := t.TempDir()
	in := debInput(t, outputDir)

	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RunRequest) (ports.RunResult, error) {
			require.Equal(t, []string{"makepkg", "--force", "--noconfirm"}, req.Command)
			assert.Equal(t, filepath.Join(outputDir, "staging", "arch", "x86_64"), req.Dir)
			assert.Contains(t, req.Env, "CARCH=x86_64")

			// The propagated PKGBUILD must be in place before makepkg runs.
			pkgbuild, err := os.ReadFile(filepath.Join(req.Dir, "PKGBUILD"))
			require.NoError(t, err)
			assert.Contains(t, string(pkgbuild), "pkgver=0.3.0")

			var pkgdest string
			for _, kv := range req.Env {
				if v, ok := strings.CutPrefix(kv, "PKGDEST="); ok {
					pkgdest = v
				}
			}
			require.NotEmpty(t, pkgdest)
			pkg := filepath.Join(pkgdest, "ziplock-0.3.0-1-x86_64.pkg.tar.zst")
			require.NoError(t, os.WriteFile(pkg, []byte("pkg"), 0o644))
			return ports.RunResult{}, nil
		})

	p := packaging.NewArchPackager(runner, propagatedPKGBUILD(t), "ziplock")
	desc, err := p.Package(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatArch, desc.Format)
	assert.Equal(t, "0.3.0", desc.Version)
	assert.Equal(t, "x86_64", desc.Architecture)
	assert.Equal(t, testChecksum, desc.Checksum)
	assert.Contains(t, desc.OutputPath, "ziplock-0.3.0-1-x86_64.pkg.tar.zst")
}

func linuxInput(t *testing.T, outputDir, arch string) ports.PackageInput {
	t.Helper()
	libPath := filepath.Join(t.TempDir(), "libziplock_shared.so")
	require.NoError(t, os.WriteFile(libPath, []byte("shared object"), 0o644))

	return ports.PackageInput{
		Artifacts: []domain.Artifact{{
			Kind: domain.ArtifactSharedLibrary,
			Path: libPath,
			Target: domain.BuildTarget{
				Platform: domain.PlatformLinux,
				Arch:     arch,
				Profile:  domain.ProfileRelease,
			},
			Checksum: testChecksum,
		}},
		Version:   domain.ReleaseVersion("0.3.0"),
		Checksum:  testChecksum,
		OutputDir: outputDir,
	}
}

// Both default linux architectures package into the same output
// directory; each invocation must resolve its own package file, not
// trip over the sibling's.
func TestArchPackage_TwoArchitecturesShareOutputDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	outputDir := t.TempDir()

	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RunRequest) (ports.RunResult, error) {
			var pkgdest, carch string
			for _, kv := range req.Env {
				if v, ok := strings.CutPrefix(kv, "PKGDEST="); ok {
					pkgdest = v
				}
				if v, ok := strings.CutPrefix(kv, "CARCH="); ok {
					carch = v
				}
			}
			pkg := filepath.Join(pkgdest, "ziplock-0.3.0-1-"+carch+".pkg.tar.zst")
			require.NoError(t, os.WriteFile(pkg, []byte(carch), 0o644))
			return ports.RunResult{}, nil
		}).Times(2)

	p := packaging.NewArchPackager(runner, propagatedPKGBUILD(t), "ziplock")

	first, err := p.Package(context.Background(), linuxInput(t, outputDir, "x86_64"))
	require.NoError(t, err)
	second, err := p.Package(context.Background(), linuxInput(t, outputDir, "aarch64"))
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputPath, second.OutputPath)
	assert.Contains(t, first.OutputPath, "x86_64")
	assert.Contains(t, second.OutputPath, "aarch64")
}

func TestArchPackage_ToolFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	in := debInput(t, t.TempDir())

	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(
		ports.RunResult{Stderr: "==> ERROR: A failure occurred in build().", ExitCode: 4},
		fmt.Errorf("command failed"))

	p := packaging.NewArchPackager(runner, propagatedPKGBUILD(t), "ziplock")
	_, err := p.Package(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPackage))
}

func TestArchPackage_RefusesUnverifiedArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	in := debInput(t, t.TempDir())
	in.Artifacts[0].Checksum = ""

	p := packaging.NewArchPackager(mocks.NewMockRunner(ctrl), propagatedPKGBUILD(t), "ziplock")
	_, err := p.Package(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPackage))
}
