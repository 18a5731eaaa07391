package domain

// ToolProbe is the result of probing for an external tool.
// Absence is data, not an error: a missing tool degrades or skips the
// stages that need it, it never fails the probe itself.
type ToolProbe struct {
	Tool      string
	Available bool
	Version   string
}

// ToolchainDescriptor describes one concrete build environment for a
// target: the command to run, how to clean and retry it, and where the
// expected artifact lands. Adapters produce these in fallback chains
// ordered by preference.
type ToolchainDescriptor struct {
	// Name identifies the descriptor inside its chain ("msvc", "gnu",
	// "container-registry", ...). Recorded when it succeeds because
	// packaging and output paths depend on which alternative won.
	Name string

	// Setup commands run before the build command. A setup failure
	// advances the fallback chain (e.g. registry pull before local
	// image build).
	Setup [][]string

	// Command is the build invocation.
	Command []string

	// CleanCommand resets the target's intermediate state for the
	// escalation rebuild.
	CleanCommand []string

	// VerboseArgs are appended to Command on the final escalation
	// attempt.
	VerboseArgs []string

	// Env holds KEY=VALUE overrides for all commands of this descriptor.
	Env []string

	// Image is the container image reference, when Kind is container.
	Image string

	// ArtifactPath is where the build is expected to leave its output,
	// relative to the working directory.
	ArtifactPath string
}
