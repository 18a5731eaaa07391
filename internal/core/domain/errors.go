package domain

import "go.trai.ch/zerr"

var (
	// ErrConfig is returned for invalid CLI or target input. It is
	// fatal and raised before any subprocess is spawned.
	ErrConfig = zerr.New("invalid configuration")

	// ErrToolMissing is returned when a required external tool is not
	// installed. Optional tools degrade their stage to a warning
	// instead.
	ErrToolMissing = zerr.New("required tool missing")

	// ErrBuild is returned when compilation failed or the expected
	// artifact is still missing after escalation. Fails that target
	// only.
	ErrBuild = zerr.New("build failed")

	// ErrVerification is returned when an artifact exists but fails a
	// verification check. Fails that target's packaging only; the
	// build output is retained for inspection.
	ErrVerification = zerr.New("artifact verification failed")

	// ErrInconsistent is returned on a version/checksum mismatch
	// across package descriptors. Fatal for the whole run: a mismatch
	// silently breaks downstream package-manager installs.
	ErrInconsistent = zerr.New("version/checksum mismatch")

	// ErrPackage is returned when an external packaging tool fails or
	// produces ambiguous output. Fails that target/format only.
	ErrPackage = zerr.New("packaging failed")
)

// WithHint attaches a one-line actionable remediation hint to an error.
func WithHint(err error, hint string) error {
	return zerr.With(err, "hint", hint)
}
