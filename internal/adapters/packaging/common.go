package packaging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// libraryName is the shared library filename per platform.
func libraryName(platform domain.Platform) string {
	if platform == domain.PlatformWindows {
		return "ziplock_shared.dll"
	}
	return "libziplock_shared.so"
}

// requireVerified rejects input whose artifacts did not pass
// verification. The verifier attaches the checksum on success, so an
// artifact without one never reached a passing verdict.
func requireVerified(in ports.PackageInput) error {
	if len(in.Artifacts) == 0 {
		return zerr.Wrap(domain.ErrPackage, "no artifacts to package")
	}
	for _, a := range in.Artifacts {
		if a.Checksum == "" {
			return zerr.With(zerr.Wrap(domain.ErrPackage, "refusing unverified artifact"),
				"artifact", a.Path)
		}
	}
	return nil
}

// expectOne resolves the single output file matching the pattern.
// Ambiguous output is an error, never "pick the first one silently";
// the same goes for no output despite a successful tool exit.
func expectOne(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", zerr.Wrap(err, "bad output pattern")
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", zerr.With(zerr.Wrap(domain.ErrPackage, "packaging tool produced no output"),
			"pattern", pattern)
	default:
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrPackage, "ambiguous packaging output"),
			"pattern", pattern),
			"matches", matches)
	}
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create directory")
	}

	in, err := os.Open(src) //nolint:gosec // pipeline-produced path
	if err != nil {
		return zerr.Wrap(err, "failed to open source")
	}
	defer in.Close() //nolint:errcheck // read-only

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode) //nolint:gosec // pipeline-produced path
	if err != nil {
		return zerr.Wrap(err, "failed to create destination")
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "failed to copy file")
	}
	return out.Close()
}

// debArch maps machine architectures to Debian architecture names.
func debArch(cpuArch string) string {
	switch cpuArch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	case "armv7":
		return "armhf"
	case "i686":
		return "i386"
	default:
		return cpuArch
	}
}
