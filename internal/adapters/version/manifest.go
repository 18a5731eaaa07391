// Package version implements the version/checksum propagator.
package version

import (
	"os"
	"regexp"

	"github.com/ziplock/relkit/internal/core/domain"
	"go.trai.ch/zerr"
)

// versionRe matches the version field of the canonical manifest
// (the workspace Cargo.toml). The first match wins; the manifest is the
// sole source of the release version and is read exactly once per run.
var versionRe = regexp.MustCompile(`(?m)^\s*version\s*=\s*"(\d+\.\d+\.\d+[^"]*)"`)

// ReadVersion extracts the release version from the canonical manifest.
func ReadVersion(manifestPath string) (domain.ReleaseVersion, error) {
	data, err := os.ReadFile(manifestPath) //nolint:gosec // path from configuration
	if err != nil {
		return "", domain.WithHint(
			zerr.With(zerr.Wrap(err, "failed to read canonical manifest"), "path", manifestPath),
			"run from the workspace root or set manifest in relkit.yaml")
	}

	m := versionRe.FindSubmatch(data)
	if m == nil {
		return "", zerr.With(zerr.Wrap(domain.ErrConfig, "no version field in canonical manifest"),
			"path", manifestPath)
	}
	return domain.ReleaseVersion(m[1]), nil
}
