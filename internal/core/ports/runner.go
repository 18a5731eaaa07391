// Package ports defines the core interfaces for the application.
package ports

import "context"

// RunRequest describes one subprocess invocation. The working directory
// is always explicit; no stage may rely on process-global state.
type RunRequest struct {
	Command []string
	Dir     string
	Env     []string
}

// RunResult carries the captured output of a finished subprocess.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external tools (compilers, container runtime,
// packaging tools).
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Runner interface {
	// Run blocks until the command exits. A non-zero exit code or a
	// spawn failure is returned as an error; the result still carries
	// whatever output was captured.
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}
