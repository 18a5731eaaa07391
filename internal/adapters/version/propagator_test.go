package version_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziplock/relkit/internal/adapters/version"
	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const pkgbuildTemplate = `pkgname=ziplock
pkgver=0.0.0
pkgrel=1
arch=('x86_64')
sha256sums=('SKIP')

build() {
	cargo build --release
}
`

// workspace lays out a minimal source tree with a manifest and a
// PKGBUILD template.
func workspace(t *testing.T) (root, manifest, pkgbuild string) {
	t.Helper()
	root = t.TempDir()
	manifest = filepath.Join(root, "Cargo.toml")
	pkgbuild = filepath.Join(root, "packaging", "arch", "PKGBUILD")

	require.NoError(t, os.WriteFile(manifest, []byte("[workspace.package]\nversion = \"0.3.0\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(pkgbuild), 0o755))
	require.NoError(t, os.WriteFile(pkgbuild, []byte(pkgbuildTemplate), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "shared", "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared", "src", "lib.rs"), []byte("pub fn init() {}\n"), 0o644))
	return root, manifest, pkgbuild
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return logger
}

func TestPrepare_RewritesTemplates(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	ver, checksum, err := p.Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ReleaseVersion("0.3.0"), ver)
	assert.Len(t, checksum, 64)

	rewritten, err := os.ReadFile(pkgbuild)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), "pkgver=0.3.0")
	assert.Contains(t, string(rewritten), "sha256sums=('"+checksum+"')")
	// The placeholder must be fully replaced, never written back.
	assert.NotContains(t, string(rewritten), "SKIP")
	// The opaque build logic survives the rewrite untouched.
	assert.Contains(t, string(rewritten), "cargo build --release")
}

func TestPrepare_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	ver1, sum1, err := p.Prepare(context.Background())
	require.NoError(t, err)
	ver2, sum2, err := p.Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ver1, ver2)
	assert.Equal(t, sum1, sum2)
}

// The rewritten template embeds the checksum, so it stays out of the
// hash: a second propagator over the already-rewritten tree must agree
// with the first.
func TestPrepare_RewriteDoesNotPerturbChecksum(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p1 := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	_, sum1, err := p1.Prepare(context.Background())
	require.NoError(t, err)

	p2 := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	_, sum2, err := p2.Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
}

// Repeat calls re-verify the tree instead of pinning the first answer:
// a version bump plus a source edit between calls yields a fresh pair
// and re-rewrites the templates.
func TestPrepare_RepeatCallTracksChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	ver1, sum1, err := p.Prepare(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(manifest,
		[]byte("[workspace.package]\nversion = \"0.3.1\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared", "src", "lib.rs"),
		[]byte("pub fn init() { let _guard = (); }\n"), 0o644))

	ver2, sum2, err := p.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ReleaseVersion("0.3.1"), ver2)
	assert.NotEqual(t, ver1, ver2)
	assert.NotEqual(t, sum1, sum2)

	rewritten, err := os.ReadFile(pkgbuild)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), "pkgver=0.3.1")
	assert.Contains(t, string(rewritten), "sha256sums=('"+sum2+"')")
}

func TestPrepare_ChecksumDeterministic(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, _ := workspace(t)

	p1 := version.New(manifest, root, nil, []string{"packaging"}, quietLogger(ctrl))
	_, sum1, err := p1.Prepare(context.Background())
	require.NoError(t, err)

	p2 := version.New(manifest, root, nil, []string{"packaging"}, quietLogger(ctrl))
	_, sum2, err := p2.Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
}

func TestPrepare_ChecksumTracksSourceChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, _ := workspace(t)

	p1 := version.New(manifest, root, nil, []string{"packaging"}, quietLogger(ctrl))
	_, sum1, err := p1.Prepare(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "shared", "src", "lib.rs"),
		[]byte("pub fn init() { /* changed */ }\n"), 0o644))

	p2 := version.New(manifest, root, nil, []string{"packaging"}, quietLogger(ctrl))
	_, sum2, err := p2.Prepare(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, sum1, sum2)
}

func TestPrepare_ExcludesBuildArtifacts(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, _ := workspace(t)

	p1 := version.New(manifest, root, nil, []string{"packaging"}, quietLogger(ctrl))
	_, sum1, err := p1.Prepare(context.Background())
	require.NoError(t, err)

	// Build output and VCS metadata never influence the checksum.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "target", "release"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "target", "release", "libziplock_shared.so"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main"), 0o644))

	p2 := version.New(manifest, root, nil, []string{"packaging"}, quietLogger(ctrl))
	_, sum2, err := p2.Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
}

func TestValidate_AcceptsMatchingDescriptors(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	ver, checksum, err := p.Prepare(context.Background())
	require.NoError(t, err)

	err = p.Validate([]domain.PackageDescriptor{
		{Format: domain.FormatDeb, Version: ver.String(), Checksum: checksum},
		{Format: domain.FormatArch, Version: ver.String(), Checksum: checksum},
	})
	require.NoError(t, err)
}

func TestValidate_RejectsDivergence(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	ver, checksum, err := p.Prepare(context.Background())
	require.NoError(t, err)

	err = p.Validate([]domain.PackageDescriptor{
		{Format: domain.FormatDeb, Version: "0.2.9", Checksum: checksum},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInconsistent))

	err = p.Validate([]domain.PackageDescriptor{
		{Format: domain.FormatDeb, Version: ver.String(), Checksum: "0000"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInconsistent))
}

func TestValidate_BeforePrepare(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	err := p.Validate(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInconsistent))
}

func TestPrepare_PreservesTemplateMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	root, manifest, pkgbuild := workspace(t)
	require.NoError(t, os.Chmod(pkgbuild, 0o755))

	p := version.New(manifest, root, []string{pkgbuild}, nil, quietLogger(ctrl))
	_, _, err := p.Prepare(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(pkgbuild)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}
