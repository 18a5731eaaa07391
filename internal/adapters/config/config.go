// Package config provides the pipeline configuration loader.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the pipeline configuration file looked up in the
// working directory.
const DefaultFilename = "relkit.yaml"

// Config is the resolved pipeline configuration. Every field has a
// built-in default; the file and environment only override.
type Config struct {
	// Manifest is the canonical manifest file, the sole source of the
	// release version.
	Manifest string `yaml:"manifest"`

	// Crate is the cargo package producing the shared library.
	Crate string `yaml:"crate"`

	// PackageName is the name used by every package format.
	PackageName string `yaml:"package_name"`

	// Image is the cross-compile container image (RELKIT_IMAGE
	// overrides).
	Image string `yaml:"image"`

	// LocalImage is the tag for a locally-built fallback image.
	LocalImage string `yaml:"local_image"`

	// RecipeDir holds the container recipe for the local image build.
	RecipeDir string `yaml:"recipe_dir"`

	// NDKRoot is the Android NDK location (ANDROID_NDK_ROOT
	// overrides).
	NDKRoot string `yaml:"ndk_root"`

	// SDKRoot is the Android SDK location (ANDROID_SDK_ROOT
	// overrides). Recorded for the Android toolchain environment.
	SDKRoot string `yaml:"sdk_root"`

	// Profile is the default build profile (RELKIT_PROFILE overrides).
	Profile string `yaml:"profile"`

	// Mandatory lists target IDs whose failure fails the whole run.
	Mandatory []string `yaml:"mandatory"`

	Templates TemplatesConfig `yaml:"templates"`
	Symbols   SymbolsConfig   `yaml:"symbols"`
	Size      SizeConfig      `yaml:"size"`
}

// TemplatesConfig locates the package descriptor templates.
type TemplatesConfig struct {
	Deb      string `yaml:"deb"`
	Msi      string `yaml:"msi"`
	Pkgbuild string `yaml:"pkgbuild"`
}

// SymbolsConfig is the FFI symbol contract of the shared library.
type SymbolsConfig struct {
	Required []string `yaml:"required"`
	Optional []string `yaml:"optional"`
}

// SizeConfig bounds the acceptable shared library size in bytes.
type SizeConfig struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// defaults mirror the ziplock workspace layout and the documented
// environment variable defaults.
func defaults() Config {
	return Config{
		Manifest:    "Cargo.toml",
		Crate:       "ziplock-shared",
		PackageName: "ziplock",
		Image:       "ghcr.io/ziplock/cross-build:latest",
		LocalImage:  "ziplock/cross-build:local",
		RecipeDir:   "docker",
		Profile:     "release",
		Mandatory:   []string{"linux/x86_64"},
		Templates: TemplatesConfig{
			Deb:      "packaging/linux/deb",
			Msi:      "packaging/windows",
			Pkgbuild: "packaging/arch/PKGBUILD",
		},
		Symbols: SymbolsConfig{
			Required: []string{
				"ziplock_init",
				"ziplock_archive_create",
				"ziplock_archive_open",
				"ziplock_archive_close",
				"ziplock_credential_add",
				"ziplock_credential_list",
				"ziplock_last_error",
				"ziplock_free_string",
			},
			Optional: []string{
				"ziplock_enable_debug_logging",
			},
		},
		Size: SizeConfig{
			Min: 100 << 10, // 100 KiB: anything smaller is truncated
			Max: 50 << 20,  // 50 MiB: anything larger was not stripped
		},
	}
}

// Loader reads the configuration from a working directory.
type Loader struct {
	Filename string
}

// Load resolves the configuration: built-in defaults, overlaid by the
// config file when present, overlaid by environment variables. A
// missing file is not an error.
func (l *Loader) Load(cwd string) (Config, error) {
	cfg := defaults()

	name := l.Filename
	if name == "" {
		name = DefaultFilename
	}

	data, err := os.ReadFile(filepath.Join(cwd, name)) //nolint:gosec // path from configuration
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, zerr.Wrap(err, "failed to read config file")
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, zerr.Wrap(err, "failed to parse config file")
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, dest := range map[string]*string{
		"RELKIT_IMAGE":     &cfg.Image,
		"RELKIT_PROFILE":   &cfg.Profile,
		"ANDROID_NDK_ROOT": &cfg.NDKRoot,
		"ANDROID_SDK_ROOT": &cfg.SDKRoot,
	} {
		if v := os.Getenv(env); v != "" {
			*dest = v
		}
	}
}
