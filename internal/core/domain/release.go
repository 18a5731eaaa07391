package domain

import "time"

// ReleaseVersion is the single authoritative version string for one
// pipeline run, extracted once from the canonical manifest.
type ReleaseVersion string

// String returns the bare version string.
func (v ReleaseVersion) String() string { return string(v) }

// BuildOptions are the user-facing knobs of one run, recorded in the
// release manifest.
type BuildOptions struct {
	Profile   Profile `json:"profile"`
	Clean     bool    `json:"clean"`
	SkipTests bool    `json:"skip_tests"`
	Verbose   bool    `json:"verbose"`
	Jobs      int     `json:"jobs"`
	OutputDir string  `json:"output_dir"`
}

// PlatformSummary counts the outputs collected for one platform.
type PlatformSummary struct {
	Artifacts int `json:"artifacts"`
	Packages  int `json:"packages"`
}

// ReleaseManifest is written once by the release aggregator at the end
// of a run.
type ReleaseManifest struct {
	Version   string                     `json:"version"`
	GitCommit string                     `json:"git_commit"`
	GitBranch string                     `json:"git_branch"`
	Timestamp time.Time                  `json:"timestamp"`
	Platforms map[string]PlatformSummary `json:"platforms"`
	Options   BuildOptions               `json:"options"`
}
