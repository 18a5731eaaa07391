package version

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	pkgverRe     = regexp.MustCompile(`(?m)^pkgver=.*$`)
	sha256sumsRe = regexp.MustCompile(`(?m)^sha256sums=.*$`)
)

// Propagator implements ports.Propagator: it establishes the single
// (version, checksum) pair of a run and pushes it into every packaging
// descriptor template. The canonical manifest is read-only for the
// whole run; template rewrites are single-writer even under parallel
// target execution.
type Propagator struct {
	manifest   string
	sourceRoot string
	pkgbuilds  []string
	excludes   []string
	// templateRels are the pkgbuilds as slash-separated paths relative
	// to sourceRoot. They are excluded from the source hash: their
	// content embeds the checksum itself, so including them would make
	// the digest self-referential and shift on every rewrite.
	templateRels []string
	logger       ports.Logger

	mu       sync.Mutex
	version  domain.ReleaseVersion
	checksum string
	cache    map[uint64]string
}

// New creates a Propagator. pkgbuilds lists the PKGBUILD-style template
// files whose embedded version/checksum fields get rewritten.
func New(manifest, sourceRoot string, pkgbuilds, excludes []string, logger ports.Logger) *Propagator {
	var templateRels []string
	for _, pkgbuild := range pkgbuilds {
		rel, err := filepath.Rel(sourceRoot, pkgbuild)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		templateRels = append(templateRels, filepath.ToSlash(rel))
	}

	return &Propagator{
		manifest:     manifest,
		sourceRoot:   sourceRoot,
		pkgbuilds:    pkgbuilds,
		excludes:     excludes,
		templateRels: templateRels,
		logger:       logger,
		cache:        make(map[uint64]string),
	}
}

// Prepare reads the release version, computes the source checksum and
// rewrites the templates. Repeat calls re-verify the tree fingerprint,
// so an unchanged tree reuses the cached checksum while a changed one
// establishes a fresh (version, checksum) pair.
func (p *Propagator) Prepare(ctx context.Context) (domain.ReleaseVersion, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	version, err := ReadVersion(p.manifest)
	if err != nil {
		return "", "", err
	}

	checksum, err := p.cachedChecksum()
	if err != nil {
		return "", "", err
	}

	for _, pkgbuild := range p.pkgbuilds {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		if err := p.rewrite(pkgbuild, version, checksum); err != nil {
			return "", "", err
		}
	}

	if version != p.version || checksum != p.checksum {
		p.logger.Info(fmt.Sprintf("release version %s, source checksum %s", version, checksum[:12]))
	}
	p.version = version
	p.checksum = checksum
	return version, checksum, nil
}

// Validate enforces the central cross-cutting invariant: every
// descriptor of the run carries exactly the (version, checksum) pair
// established by Prepare. Divergence is a hard pipeline error.
func (p *Propagator) Validate(descriptors []domain.PackageDescriptor) error {
	p.mu.Lock()
	version, checksum := p.version, p.checksum
	p.mu.Unlock()

	if version == "" {
		return zerr.Wrap(domain.ErrInconsistent, "validate called before prepare")
	}

	for _, d := range descriptors {
		if d.Version != version.String() {
			err := zerr.Wrap(domain.ErrInconsistent, "descriptor version diverges")
			err = zerr.With(err, "format", string(d.Format))
			err = zerr.With(err, "descriptor_version", d.Version)
			return zerr.With(err, "release_version", version.String())
		}
		if d.Checksum != checksum {
			err := zerr.Wrap(domain.ErrInconsistent, "descriptor checksum diverges")
			err = zerr.With(err, "format", string(d.Format))
			err = zerr.With(err, "descriptor_checksum", d.Checksum)
			return zerr.With(err, "release_checksum", checksum)
		}
	}
	return nil
}

// cachedChecksum computes the source checksum, short-circuiting on an
// unchanged tree fingerprint.
func (p *Propagator) cachedChecksum() (string, error) {
	fp, err := treeFingerprint(p.sourceRoot, p.excludes, p.templateRels)
	if err != nil {
		return "", err
	}
	if checksum, ok := p.cache[fp]; ok {
		return checksum, nil
	}

	checksum, err := sourceChecksum(p.sourceRoot, p.excludes, p.templateRels)
	if err != nil {
		return "", err
	}
	p.cache[fp] = checksum
	return checksum, nil
}

// rewrite replaces the pkgver and sha256sums fields in place. The
// rendered content goes to a fresh file swapped in atomically, so a
// failed or aborted run never leaves a garbled template. The literal
// placeholder SKIP is never written.
func (p *Propagator) rewrite(path string, version domain.ReleaseVersion, checksum string) error {
	data, err := os.ReadFile(path) //nolint:gosec // template path from configuration
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read packaging template"), "path", path)
	}

	out := pkgverRe.ReplaceAll(data, []byte("pkgver="+version.String()))
	out = sha256sumsRe.ReplaceAll(out, []byte(fmt.Sprintf("sha256sums=('%s')", checksum)))

	info, err := os.Stat(path)
	if err != nil {
		return zerr.Wrap(err, "failed to stat packaging template")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".propagate-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best effort cleanup

	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write rewritten template")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush rewritten template")
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return zerr.Wrap(err, "failed to preserve template mode")
	}

	return os.Rename(tmp.Name(), path)
}
