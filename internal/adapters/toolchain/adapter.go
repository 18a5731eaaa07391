// Package toolchain maps build targets to toolchain descriptor chains.
package toolchain

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// Config carries the toolchain locations and overrides the adapter
// needs. All fields have documented defaults resolved by the config
// loader.
type Config struct {
	// Image is the cross-compile container image reference, normally a
	// registry ref (RELKIT_IMAGE overrides it).
	Image string

	// LocalImage is the tag used when the image has to be built
	// locally from the recipe.
	LocalImage string

	// RecipeDir is the directory containing the container recipe,
	// relative to the working directory.
	RecipeDir string

	// NDKRoot is the Android NDK location (ANDROID_NDK_ROOT).
	NDKRoot string

	// Crate is the cargo package that produces the shared library.
	Crate string
}

// Adapter implements ports.ToolchainResolver for the fixed platform set
// of this pipeline.
type Adapter struct {
	prober ports.Prober
	cfg    Config
}

// New creates a toolchain adapter.
func New(prober ports.Prober, cfg Config) *Adapter {
	return &Adapter{prober: prober, cfg: cfg}
}

// Chains produces the ordered toolchain fallback chain for a target.
// Two canonical patterns are encoded here: registry-then-local for
// container builds and MSVC-then-GNU for Windows builds. An empty chain
// is never returned; a target whose tools are all absent resolves to a
// tool-missing error instead.
func (a *Adapter) Chains(ctx context.Context, workDir string, target domain.BuildTarget) ([]domain.ToolchainDescriptor, error) {
	switch target.Platform {
	case domain.PlatformLinux:
		return a.linuxChain(ctx, workDir, target)
	case domain.PlatformAndroid:
		return a.androidChain(ctx, workDir, target)
	case domain.PlatformWindows:
		return a.windowsChain(ctx, target)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "no toolchain for platform"),
			"platform", string(target.Platform))
	}
}

func (a *Adapter) linuxChain(ctx context.Context, workDir string, target domain.BuildTarget) ([]domain.ToolchainDescriptor, error) {
	if target.Kind == domain.ToolchainContainer {
		return a.containerChain(ctx, workDir, target, cargoBuild(a.cfg.Crate, triple(target), target.Profile))
	}

	if !a.prober.Probe(ctx, "cargo").Available {
		return nil, domain.WithHint(
			zerr.With(zerr.With(domain.ErrToolMissing, "tool", "cargo"), "target", target.ID()),
			"install the Rust toolchain (https://rustup.rs)")
	}

	return []domain.ToolchainDescriptor{{
		Name:         "cargo-native",
		Command:      cargoBuild(a.cfg.Crate, triple(target), target.Profile),
		CleanCommand: []string{"cargo", "clean", "--target", triple(target)},
		VerboseArgs:  []string{"--verbose"},
		ArtifactPath: artifactPath(target),
	}}, nil
}

func (a *Adapter) androidChain(ctx context.Context, workDir string, target domain.BuildTarget) ([]domain.ToolchainDescriptor, error) {
	build := []string{
		"cargo", "ndk", "-t", target.Arch,
		"build", "-p", a.cfg.Crate,
	}
	if target.Profile == domain.ProfileRelease {
		build = append(build, "--release")
	}

	chain, err := a.containerChain(ctx, workDir, target, build)

	// A locally installed cargo-ndk with a configured NDK is the last
	// resort when the container path is unusable.
	if a.cfg.NDKRoot != "" && a.prober.Probe(ctx, "cargo-ndk").Available {
		chain = append(chain, domain.ToolchainDescriptor{
			Name:         "cargo-ndk-native",
			Command:      build,
			CleanCommand: []string{"cargo", "clean", "--target", triple(target)},
			VerboseArgs:  []string{"--verbose"},
			Env:          []string{"ANDROID_NDK_ROOT=" + a.cfg.NDKRoot},
			ArtifactPath: artifactPath(target),
		})
		err = nil
	}

	if len(chain) == 0 {
		return nil, domain.WithHint(
			zerr.With(domain.ErrToolMissing, "target", target.ID()),
			"install docker for containerized Android builds, or cargo-ndk with ANDROID_NDK_ROOT set")
	}
	return chain, err
}

// containerChain implements registry-then-local: prefer the pre-built
// image from the registry; on pull failure the recipe is built locally.
// Only if both fail is the target fatal.
func (a *Adapter) containerChain(ctx context.Context, workDir string, target domain.BuildTarget, build []string) ([]domain.ToolchainDescriptor, error) {
	if !a.prober.Probe(ctx, "docker").Available {
		return nil, domain.WithHint(
			zerr.With(zerr.With(domain.ErrToolMissing, "tool", "docker"), "target", target.ID()),
			"install docker, or build this target natively on matching hardware")
	}

	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}

	run := func(image string) []string {
		return append([]string{
			"docker", "run", "--rm",
			"-v", abs + ":/build",
			"-w", "/build",
			image,
		}, build...)
	}

	return []domain.ToolchainDescriptor{
		{
			Name:         "container-registry",
			Setup:        [][]string{{"docker", "pull", a.cfg.Image}},
			Command:      run(a.cfg.Image),
			VerboseArgs:  []string{"--verbose"},
			Image:        a.cfg.Image,
			ArtifactPath: artifactPath(target),
		},
		{
			Name:         "container-local",
			Setup:        [][]string{{"docker", "build", "-t", a.cfg.LocalImage, a.cfg.RecipeDir}},
			Command:      run(a.cfg.LocalImage),
			VerboseArgs:  []string{"--verbose"},
			Image:        a.cfg.LocalImage,
			ArtifactPath: artifactPath(target),
		},
	}, nil
}

// windowsChain implements primary-then-alternate: the MSVC ABI is
// preferred, and the same build step is retried with the GNU ABI before
// the target is declared failed.
func (a *Adapter) windowsChain(ctx context.Context, target domain.BuildTarget) ([]domain.ToolchainDescriptor, error) {
	if !a.prober.Probe(ctx, "cargo").Available {
		return nil, domain.WithHint(
			zerr.With(zerr.With(domain.ErrToolMissing, "tool", "cargo"), "target", target.ID()),
			"install the Rust toolchain (https://rustup.rs)")
	}

	descriptor := func(name, abi string) domain.ToolchainDescriptor {
		t := fmt.Sprintf("%s-pc-windows-%s", target.CPUArch(), abi)
		return domain.ToolchainDescriptor{
			Name:         name,
			Command:      cargoBuild(a.cfg.Crate, t, target.Profile),
			CleanCommand: []string{"cargo", "clean", "--target", t},
			VerboseArgs:  []string{"--verbose"},
			ArtifactPath: filepath.Join("target", t, profileDir(target.Profile), "ziplock_shared.dll"),
		}
	}

	return []domain.ToolchainDescriptor{
		descriptor("msvc", "msvc"),
		descriptor("gnu", "gnu"),
	}, nil
}

func cargoBuild(crate, triple string, profile domain.Profile) []string {
	cmd := []string{"cargo", "build", "-p", crate, "--target", triple}
	if profile == domain.ProfileRelease {
		cmd = append(cmd, "--release")
	}
	return cmd
}

// triple maps a target to its Rust target triple.
func triple(target domain.BuildTarget) string {
	switch target.Platform {
	case domain.PlatformAndroid:
		switch target.Arch {
		case "arm64-v8a":
			return "aarch64-linux-android"
		case "armeabi-v7a":
			return "armv7-linux-androideabi"
		case "x86_64":
			return "x86_64-linux-android"
		case "x86":
			return "i686-linux-android"
		}
	case domain.PlatformWindows:
		return target.CPUArch() + "-pc-windows-msvc"
	case domain.PlatformLinux:
		return target.CPUArch() + "-unknown-linux-gnu"
	}
	return ""
}

func profileDir(profile domain.Profile) string {
	if profile == domain.ProfileDebug {
		return "debug"
	}
	return "release"
}

// artifactPath is where cargo leaves the shared library for a target,
// relative to the working directory.
func artifactPath(target domain.BuildTarget) string {
	name := "libziplock_shared.so"
	if target.Platform == domain.PlatformWindows {
		name = "ziplock_shared.dll"
	}
	return filepath.Join("target", triple(target), profileDir(target.Profile), name)
}
