// Package shell provides the subprocess runner adapter.
package shell

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner implements ports.Runner using os/exec. All invocations are
// blocking; the orchestrator's suspension points are exactly these
// waits.
type Runner struct {
	logger ports.Logger

	mu   sync.RWMutex
	echo bool
}

// New creates a Runner. With echo enabled every spawned command line is
// logged before execution (the --verbose behavior).
func New(logger ports.Logger, echo bool) *Runner {
	return &Runner{logger: logger, echo: echo}
}

// SetEcho switches command-line echoing on or off. The CLI calls this
// after flag parsing, before the pipeline starts.
func (r *Runner) SetEcho(echo bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.echo = echo
}

func (r *Runner) echoing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.echo
}

// Run executes the request's command with an explicit working directory
// and merged environment, capturing both output streams. The request's
// Env entries override the inherited environment; PATH entries are
// prepended instead so toolchain shims win the lookup.
func (r *Runner) Run(ctx context.Context, req ports.RunRequest) (ports.RunResult, error) {
	if len(req.Command) == 0 {
		return ports.RunResult{}, zerr.New("empty command")
	}

	if r.echoing() {
		r.logger.Info("exec: " + strings.Join(req.Command, " "))
	}

	cmd := exec.CommandContext(ctx, req.Command[0], req.Command[1:]...) //nolint:gosec // commands come from toolchain descriptors
	cmd.Dir = req.Dir
	cmd.Env = mergeEnv(os.Environ(), req.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ports.RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		result.ExitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, zerr.With(zerr.With(zerr.Wrap(err, "command failed"),
			"command", req.Command[0]),
			"exit_code", result.ExitCode)
	}

	return result, nil
}

// mergeEnv overlays the override entries on the base environment.
// PATH overrides are prepended to the inherited PATH rather than
// replacing it.
func mergeEnv(base, overrides []string) []string {
	envMap := make(map[string]string, len(base))
	var order []string
	for _, entry := range base {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for _, entry := range overrides {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" && envMap["PATH"] != "" {
			v = v + string(os.PathListSeparator) + envMap["PATH"]
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}
