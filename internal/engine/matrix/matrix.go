// Package matrix resolves requested platform/architecture combinations
// into concrete build targets.
package matrix

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ziplock/relkit/internal/core/domain"
	"go.trai.ch/zerr"
)

// orderedPlatforms fixes the resolution order so runs are deterministic
// regardless of how the platform set was requested.
var orderedPlatforms = []domain.Platform{
	domain.PlatformLinux,
	domain.PlatformAndroid,
	domain.PlatformWindows,
}

// defaultArches is the declared architecture matrix per platform.
// Android entries are ABI names; they map to machine architectures via
// BuildTarget.CPUArch.
var defaultArches = map[domain.Platform][]string{
	domain.PlatformLinux:   {"x86_64", "aarch64"},
	domain.PlatformAndroid: {"arm64-v8a", "armeabi-v7a", "x86_64", "x86"},
	domain.PlatformWindows: {"x86_64", "i686"},
}

// toolchainKind assigns the build environment kind a platform/arch pair
// needs. Linux aarch64 and all Android ABIs build inside the
// cross-compile container; Windows builds are cross builds.
func toolchainKind(platform domain.Platform, arch string) domain.ToolchainKind {
	switch platform {
	case domain.PlatformAndroid:
		return domain.ToolchainContainer
	case domain.PlatformWindows:
		return domain.ToolchainCross
	case domain.PlatformLinux:
		if arch != "x86_64" {
			return domain.ToolchainContainer
		}
	}
	return domain.ToolchainNative
}

// Arches returns the declared architecture set for a platform.
func Arches(platform domain.Platform) []string {
	return slices.Clone(defaultArches[platform])
}

// Resolve expands the requested platform and architecture sets into an
// ordered list of build targets. The special platform token "all"
// selects every platform. An empty architecture set selects each
// platform's default matrix. Unknown tokens are rejected with a
// configuration error naming the token and the allowed set, before any
// subprocess is spawned.
func Resolve(platforms, arches []string, profile domain.Profile) ([]domain.BuildTarget, error) {
	selected, err := selectPlatforms(platforms)
	if err != nil {
		return nil, err
	}

	var targets []domain.BuildTarget
	for _, platform := range orderedPlatforms {
		if !selected[platform] {
			continue
		}

		platformArches, err := selectArches(platform, arches)
		if err != nil {
			return nil, err
		}

		for _, arch := range platformArches {
			targets = append(targets, domain.BuildTarget{
				Platform: platform,
				Arch:     arch,
				Profile:  profile,
				Kind:     toolchainKind(platform, arch),
			})
		}
	}

	return targets, nil
}

func selectPlatforms(requested []string) (map[domain.Platform]bool, error) {
	selected := make(map[domain.Platform]bool)
	if len(requested) == 0 {
		requested = []string{"all"}
	}

	for _, token := range requested {
		if token == "all" {
			for _, p := range orderedPlatforms {
				selected[p] = true
			}
			continue
		}

		platform := domain.Platform(token)
		if _, known := defaultArches[platform]; !known {
			return nil, domain.WithHint(
				zerr.With(zerr.With(zerr.Wrap(domain.ErrConfig, "unknown platform"),
					"platform", token),
					"allowed", allowedPlatforms()),
				fmt.Sprintf("valid platforms: %s", allowedPlatforms()))
		}
		selected[platform] = true
	}

	return selected, nil
}

func selectArches(platform domain.Platform, requested []string) ([]string, error) {
	allowed := defaultArches[platform]
	if len(requested) == 0 {
		return allowed, nil
	}

	// An explicit architecture set selects only the declaring
	// platforms' matching entries; a platform declaring none of them
	// contributes no targets.
	var matched []string
	for _, arch := range allowed {
		if slices.Contains(requested, arch) {
			matched = append(matched, arch)
		}
	}
	if len(matched) > 0 {
		return matched, nil
	}

	// None of the requested architectures belong to this platform.
	// That is fine when another selected platform declares them, but a
	// token unknown to every platform is a configuration error.
	for _, token := range requested {
		if !knownArch(token) {
			err := zerr.Wrap(domain.ErrConfig, "unknown architecture")
			err = zerr.With(err, "architecture", token)
			err = zerr.With(err, "platform", string(platform))
			err = zerr.With(err, "allowed", strings.Join(allowed, ", "))
			return nil, domain.WithHint(err,
				fmt.Sprintf("valid architectures for %s: %s", platform, strings.Join(allowed, ", ")))
		}
	}

	return nil, nil
}

func knownArch(token string) bool {
	for _, arches := range defaultArches {
		if slices.Contains(arches, token) {
			return true
		}
	}
	return false
}

func allowedPlatforms() string {
	names := make([]string, 0, len(orderedPlatforms)+1)
	for _, p := range orderedPlatforms {
		names = append(names, string(p))
	}
	names = append(names, "all")
	return strings.Join(names, ", ")
}
