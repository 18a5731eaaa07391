package domain

// ArtifactKind classifies a build output.
type ArtifactKind string

const (
	ArtifactSharedLibrary ArtifactKind = "shared-library"
	ArtifactExecutable    ArtifactKind = "executable"
	ArtifactArchive       ArtifactKind = "archive"
)

// BinaryFormat is the detected object format of an artifact.
type BinaryFormat string

const (
	FormatELF     BinaryFormat = "elf"
	FormatPE      BinaryFormat = "pe"
	FormatMachO   BinaryFormat = "macho"
	FormatUnknown BinaryFormat = "unknown"
)

// Artifact is a single build output. BuildExecutor creates it; the
// verifier attaches size and checksum; after verification it is
// immutable evidence for packaging.
type Artifact struct {
	Kind     ArtifactKind
	Path     string
	Target   BuildTarget
	Size     int64
	Checksum string

	// Toolchain is the name of the descriptor that produced the
	// artifact (the winning entry of the fallback chain).
	Toolchain string
}

// VerificationVerdict is the verifier's judgement on one artifact.
// Each failed check contributes an independent reason.
type VerificationVerdict struct {
	Artifact Artifact
	Passed   bool
	Reasons  []string
}
