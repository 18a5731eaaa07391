// Package verify implements artifact verification.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
)

// Expectations are the checks applied to a shared-library artifact.
// Size bounds catch truncated or accidentally-unstripped builds; the
// required-symbol list is the FFI contract of the shared library.
type Expectations struct {
	MinSize         int64
	MaxSize         int64
	RequiredSymbols []string
	OptionalSymbols []string
}

// Verifier implements ports.Verifier. Each check reports its failure
// independently so a verdict can carry every reason at once.
type Verifier struct {
	inspector ports.Inspector
	logger    ports.Logger
	exp       Expectations
}

// New creates a Verifier with the given expectations.
func New(inspector ports.Inspector, logger ports.Logger, exp Expectations) *Verifier {
	return &Verifier{inspector: inspector, logger: logger, exp: exp}
}

// Verify runs all checks on the artifact and attaches size and checksum
// to the copy inside the verdict. A failed verdict halts packaging for
// this artifact only; the overall run continues with other targets.
func (v *Verifier) Verify(artifact domain.Artifact) domain.VerificationVerdict {
	verdict := domain.VerificationVerdict{Artifact: artifact}

	info, err := os.Stat(artifact.Path)
	if err != nil {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("artifact does not exist: %s", artifact.Path))
		return verdict
	}
	verdict.Artifact.Size = info.Size()

	if checksum, err := fileChecksum(artifact.Path); err == nil {
		verdict.Artifact.Checksum = checksum
	} else {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("checksum failed: %v", err))
	}

	v.checkSize(info.Size(), &verdict)
	v.checkFormat(artifact, &verdict)
	if artifact.Kind == domain.ArtifactSharedLibrary && artifact.Target.Platform != domain.PlatformWindows {
		v.checkSymbols(artifact, &verdict)
	}

	verdict.Passed = len(verdict.Reasons) == 0
	return verdict
}

func (v *Verifier) checkSize(size int64, verdict *domain.VerificationVerdict) {
	if v.exp.MinSize > 0 && size < v.exp.MinSize {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"size %d below minimum %d (truncated build?)", size, v.exp.MinSize))
	}
	if v.exp.MaxSize > 0 && size > v.exp.MaxSize {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"size %d above maximum %d (unstripped build?)", size, v.exp.MaxSize))
	}
}

// checkFormat verifies the produced binary's format and machine
// architecture against the requested target. An ARM64 target must not
// hand over an x86 binary, no matter what the toolchain claimed.
func (v *Verifier) checkFormat(artifact domain.Artifact, verdict *domain.VerificationVerdict) {
	info, err := v.inspector.Inspect(artifact.Path)
	if err != nil {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("format inspection failed: %v", err))
		return
	}

	want := domain.FormatELF
	if artifact.Target.Platform == domain.PlatformWindows {
		want = domain.FormatPE
	}
	if info.Format != want {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"binary format %s, expected %s", info.Format, want))
		return
	}

	if info.Arch != artifact.Target.CPUArch() {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"binary architecture %s, expected %s", info.Arch, artifact.Target.CPUArch()))
	}
}

// checkSymbols verifies the FFI symbol contract. A missing required
// symbol is fatal; additional optional symbols are informational only.
func (v *Verifier) checkSymbols(artifact domain.Artifact, verdict *domain.VerificationVerdict) {
	if len(v.exp.RequiredSymbols) == 0 {
		return
	}

	exported, err := v.inspector.ExportedSymbols(artifact.Path)
	if err != nil {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("symbol listing failed: %v", err))
		return
	}

	for _, required := range v.exp.RequiredSymbols {
		if !slices.Contains(exported, required) {
			verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
				"required symbol missing: %s", required))
		}
	}

	for _, optional := range v.exp.OptionalSymbols {
		if slices.Contains(exported, optional) {
			v.logger.Info(fmt.Sprintf("optional symbol present in %s: %s", artifact.Target.ID(), optional))
		}
	}
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // artifact path produced by the pipeline
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // read-only

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
