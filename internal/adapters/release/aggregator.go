// Package release implements the terminal aggregation stage: the
// canonical release tree, the release manifest and the compressed
// archive with its checksum sidecars.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// Collected is everything a run produced that belongs in the release
// tree.
type Collected struct {
	Artifacts   []domain.Artifact
	Descriptors []domain.PackageDescriptor
}

// Aggregator writes the canonical release tree. It is idempotent:
// re-running with the same inputs overwrites rather than appends.
type Aggregator struct {
	runner ports.Runner
	logger ports.Logger
}

// New creates an Aggregator. The runner is used for best-effort git
// metadata only.
func New(runner ports.Runner, logger ports.Logger) *Aggregator {
	return &Aggregator{runner: runner, logger: logger}
}

// Aggregate lays out release/{platform}/{binaries|packages|libraries|headers},
// writes release-manifest.json and produces the compressed archive with
// SHA-256 and MD5 sidecars.
func (a *Aggregator) Aggregate(ctx context.Context, workDir, outDir string, version domain.ReleaseVersion, opts domain.BuildOptions, collected Collected) (domain.ReleaseManifest, error) {
	tree := filepath.Join(outDir, "release")

	manifest := domain.ReleaseManifest{
		Version:   version.String(),
		GitCommit: a.gitMeta(ctx, workDir, "rev-parse", "HEAD"),
		GitBranch: a.gitMeta(ctx, workDir, "rev-parse", "--abbrev-ref", "HEAD"),
		Timestamp: time.Now().UTC(),
		Platforms: make(map[string]domain.PlatformSummary),
		Options:   opts,
	}

	for _, artifact := range collected.Artifacts {
		if err := a.placeArtifact(tree, artifact); err != nil {
			return manifest, err
		}
		summary := manifest.Platforms[string(artifact.Target.Platform)]
		summary.Artifacts++
		manifest.Platforms[string(artifact.Target.Platform)] = summary
	}

	for _, desc := range collected.Descriptors {
		if err := a.placePackage(tree, desc); err != nil {
			return manifest, err
		}
		platform := platformOf(desc.Format)
		summary := manifest.Platforms[platform]
		summary.Packages++
		manifest.Platforms[platform] = summary
	}

	a.placeHeaders(workDir, tree, collected.Artifacts)

	if err := writeManifest(filepath.Join(tree, "release-manifest.json"), manifest); err != nil {
		return manifest, err
	}

	archive := filepath.Join(outDir, fmt.Sprintf("relkit-release-%s.tar.gz", version))
	if err := writeArchive(tree, archive); err != nil {
		return manifest, err
	}
	if err := writeSidecars(archive); err != nil {
		return manifest, err
	}

	a.logger.Info("release tree written to " + tree)
	return manifest, nil
}

func (a *Aggregator) placeArtifact(tree string, artifact domain.Artifact) error {
	var section string
	switch artifact.Kind {
	case domain.ArtifactSharedLibrary:
		section = "libraries"
	case domain.ArtifactExecutable:
		section = "binaries"
	default:
		section = "packages"
	}

	// The architecture subdirectory keeps the requested name (Android
	// ABIs stay ABI-named).
	dest := filepath.Join(tree, string(artifact.Target.Platform), section,
		artifact.Target.Arch, filepath.Base(artifact.Path))
	return copyFile(artifact.Path, dest)
}

func (a *Aggregator) placePackage(tree string, desc domain.PackageDescriptor) error {
	info, err := os.Stat(desc.OutputPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "package output missing"), "path", desc.OutputPath)
	}

	base := filepath.Join(tree, platformOf(desc.Format), "packages")
	if info.IsDir() {
		// The Android jniLibs tree is a directory-shaped package.
		return copyDir(desc.OutputPath, filepath.Join(base, string(desc.Format), filepath.Base(desc.OutputPath)))
	}
	return copyFile(desc.OutputPath, filepath.Join(base, filepath.Base(desc.OutputPath)))
}

// placeHeaders copies the FFI headers next to the shared libraries.
// Best effort: a tree without the include directory just has no headers
// section.
func (a *Aggregator) placeHeaders(workDir, tree string, artifacts []domain.Artifact) {
	include := filepath.Join(workDir, "shared", "include")
	entries, err := os.ReadDir(include)
	if err != nil {
		return
	}

	platforms := make(map[domain.Platform]bool)
	for _, artifact := range artifacts {
		platforms[artifact.Target.Platform] = true
	}

	for platform := range platforms {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".h") {
				continue
			}
			dest := filepath.Join(tree, string(platform), "headers", entry.Name())
			if err := copyFile(filepath.Join(include, entry.Name()), dest); err != nil {
				a.logger.Warn(fmt.Sprintf("failed to copy header %s: %v", entry.Name(), err))
			}
		}
	}
}

// gitMeta queries git for release metadata. Best effort: outside a git
// checkout the field is "unknown".
func (a *Aggregator) gitMeta(ctx context.Context, workDir string, args ...string) string {
	res, err := a.runner.Run(ctx, ports.RunRequest{
		Command: append([]string{"git"}, args...),
		Dir:     workDir,
	})
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(res.Stdout)
}

// writeManifest writes the manifest atomically. Identical inputs
// produce byte-identical content except for the timestamp field.
func writeManifest(path string, manifest domain.ReleaseManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal release manifest")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write release manifest")
	}
	return os.Rename(tmp, path)
}

func platformOf(format domain.PackageFormat) string {
	switch format {
	case domain.FormatMSI:
		return string(domain.PlatformWindows)
	case domain.FormatAndroid:
		return string(domain.PlatformAndroid)
	default:
		return string(domain.PlatformLinux)
	}
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create directory")
	}

	in, err := os.Open(src) //nolint:gosec // pipeline-produced path
	if err != nil {
		return zerr.Wrap(err, "failed to open source")
	}
	defer in.Close() //nolint:errcheck // read-only

	info, err := in.Stat()
	if err != nil {
		return zerr.Wrap(err, "failed to stat source")
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()) //nolint:gosec // pipeline-produced path
	if err != nil {
		return zerr.Wrap(err, "failed to create destination")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "failed to copy file")
	}
	return out.Close()
}

func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dest, rel))
	})
}
