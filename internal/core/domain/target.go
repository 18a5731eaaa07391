// Package domain contains the core domain models for the release pipeline.
package domain

import "fmt"

// Platform identifies a release platform.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformAndroid Platform = "android"
	PlatformWindows Platform = "windows"
)

// Profile selects the build profile.
type Profile string

const (
	ProfileDebug   Profile = "debug"
	ProfileRelease Profile = "release"
)

// ToolchainKind describes the kind of build environment a target needs.
type ToolchainKind string

const (
	ToolchainNative    ToolchainKind = "native"
	ToolchainContainer ToolchainKind = "container"
	ToolchainCross     ToolchainKind = "cross"
)

// BuildTarget is one platform/architecture/profile combination to build.
// It is immutable once resolved by the target matrix.
type BuildTarget struct {
	Platform Platform
	Arch     string
	Profile  Profile
	Kind     ToolchainKind
}

// ID returns the canonical "platform/arch" identifier used in logs,
// reports and output paths.
func (t BuildTarget) ID() string {
	return fmt.Sprintf("%s/%s", t.Platform, t.Arch)
}

// CPUArch normalizes the target architecture to the machine architecture
// expected in the produced binary. Android ABIs carry their own naming
// scheme; everything else already is a machine architecture.
func (t BuildTarget) CPUArch() string {
	switch t.Arch {
	case "arm64-v8a":
		return "aarch64"
	case "armeabi-v7a":
		return "armv7"
	case "x86":
		return "i686"
	default:
		return t.Arch
	}
}
