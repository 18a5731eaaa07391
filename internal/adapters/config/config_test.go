package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziplock/relkit/internal/adapters/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	loader := &config.Loader{}
	cfg, err := loader.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "Cargo.toml", cfg.Manifest)
	assert.Equal(t, "ziplock-shared", cfg.Crate)
	assert.Equal(t, "ziplock", cfg.PackageName)
	assert.Equal(t, "ghcr.io/ziplock/cross-build:latest", cfg.Image)
	assert.Equal(t, "release", cfg.Profile)
	assert.Equal(t, []string{"linux/x86_64"}, cfg.Mandatory)
	assert.Contains(t, cfg.Symbols.Required, "ziplock_init")
	assert.Contains(t, cfg.Symbols.Required, "ziplock_last_error")
	assert.Equal(t, int64(100<<10), cfg.Size.Min)
	assert.Equal(t, int64(50<<20), cfg.Size.Max)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := `image: registry.example.com/ziplock/builder:v2
profile: debug
mandatory:
  - linux/x86_64
  - android/arm64-v8a
size:
  min: 1024
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "relkit.yaml"), []byte(content), 0o644))

	loader := &config.Loader{}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "registry.example.com/ziplock/builder:v2", cfg.Image)
	assert.Equal(t, "debug", cfg.Profile)
	assert.Equal(t, []string{"linux/x86_64", "android/arm64-v8a"}, cfg.Mandatory)
	assert.Equal(t, int64(1024), cfg.Size.Min)
	// Untouched fields keep their defaults.
	assert.Equal(t, "Cargo.toml", cfg.Manifest)
	assert.Equal(t, "ziplock", cfg.PackageName)
}

func TestLoad_CustomFilename(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "pipeline.yaml"), []byte("package_name: zl\n"), 0o644))

	loader := &config.Loader{Filename: "pipeline.yaml"}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "zl", cfg.PackageName)
}

func TestLoad_MalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "relkit.yaml"), []byte("image: [unclosed\n"), 0o644))

	loader := &config.Loader{}
	_, err := loader.Load(tmpDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RELKIT_IMAGE", "ghcr.io/ziplock/cross-build:nightly")
	t.Setenv("RELKIT_PROFILE", "debug")
	t.Setenv("ANDROID_NDK_ROOT", "/opt/android-ndk")

	loader := &config.Loader{}
	cfg, err := loader.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "ghcr.io/ziplock/cross-build:nightly", cfg.Image)
	assert.Equal(t, "debug", cfg.Profile)
	assert.Equal(t, "/opt/android-ndk", cfg.NDKRoot)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "relkit.yaml"), []byte("image: from-file:latest\n"), 0o644))
	t.Setenv("RELKIT_IMAGE", "from-env:latest")

	loader := &config.Loader{}
	cfg, err := loader.Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "from-env:latest", cfg.Image)
}
