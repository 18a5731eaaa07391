// Package builder implements the build executor with its bounded
// retry/clean-rebuild escalation.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxAttempts bounds the escalation: plain build, clean rebuild,
// verbose rebuild. Intermittent toolchain/cache inconsistency has been
// observed to make a build exit 0 without producing the expected
// output, so artifact presence is checked after every attempt.
const maxAttempts = 3

// outputTail limits how much build output is attached to a build error.
const outputTail = 2048

// Executor runs the build command chain of one toolchain descriptor.
type Executor struct {
	runner ports.Runner
	logger ports.Logger
}

// New creates a build executor on top of the given subprocess runner.
func New(runner ports.Runner, logger ports.Logger) *Executor {
	return &Executor{runner: runner, logger: logger}
}

// Build runs the descriptor's setup and build commands and returns the
// produced artifact. "Exit code zero but artifact missing" and
// "non-zero exit code" are both failure conditions; each triggers the
// next escalation attempt until the bound is reached.
func (e *Executor) Build(ctx context.Context, workDir string, target domain.BuildTarget, tc domain.ToolchainDescriptor) (domain.Artifact, error) {
	if err := e.setup(ctx, workDir, tc); err != nil {
		return domain.Artifact{}, err
	}

	artifactPath := filepath.Join(workDir, tc.ArtifactPath)
	var lastOutput string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Artifact{}, err
		}

		out, err := e.attempt(ctx, workDir, tc, attempt)
		if out != "" {
			lastOutput = out
		}
		if err != nil {
			e.logger.Warn(fmt.Sprintf("build attempt %d/%d failed for %s (%s)",
				attempt, maxAttempts, target.ID(), tc.Name))
			continue
		}

		info, statErr := os.Stat(artifactPath)
		if statErr == nil {
			return domain.Artifact{
				Kind:      kindOf(artifactPath),
				Path:      artifactPath,
				Target:    target,
				Size:      info.Size(),
				Toolchain: tc.Name,
			}, nil
		}

		e.logger.Warn(fmt.Sprintf(
			"build exited successfully but %s is missing for %s, escalating",
			tc.ArtifactPath, target.ID()))
	}

	err := zerr.Wrap(domain.ErrBuild, "artifact not produced after escalation")
	err = zerr.With(err, "target", target.ID())
	err = zerr.With(err, "toolchain", tc.Name)
	err = zerr.With(err, "attempts", maxAttempts)
	err = zerr.With(err, "expected", tc.ArtifactPath)
	err = zerr.With(err, "last_output", tail(lastOutput))
	return domain.Artifact{}, domain.WithHint(err,
		"re-run with --clean, or inspect the toolchain cache state")
}

// setup runs the descriptor's setup commands (e.g. image pull or local
// image build). A setup failure is returned as-is so the fallback
// driver advances to the next descriptor.
func (e *Executor) setup(ctx context.Context, workDir string, tc domain.ToolchainDescriptor) error {
	for _, cmd := range tc.Setup {
		res, err := e.runner.Run(ctx, ports.RunRequest{Command: cmd, Dir: workDir, Env: tc.Env})
		if err != nil {
			return zerr.With(zerr.With(zerr.Wrap(err, "toolchain setup failed"),
				"command", strings.Join(cmd, " ")),
				"stderr", tail(res.Stderr))
		}
	}
	return nil
}

func (e *Executor) attempt(ctx context.Context, workDir string, tc domain.ToolchainDescriptor, attempt int) (string, error) {
	// Second attempt cleans the target's intermediate state first.
	if attempt == 2 && len(tc.CleanCommand) > 0 {
		if res, err := e.runner.Run(ctx, ports.RunRequest{Command: tc.CleanCommand, Dir: workDir, Env: tc.Env}); err != nil {
			return res.Stdout + res.Stderr, zerr.Wrap(err, "clean failed")
		}
	}

	cmd := tc.Command
	// Final attempt rebuilds with explicit verbose flags.
	if attempt == maxAttempts && len(tc.VerboseArgs) > 0 {
		cmd = append(slices.Clone(cmd), tc.VerboseArgs...)
	}

	e.logger.Debug(fmt.Sprintf("attempt %d/%d: %s", attempt, maxAttempts, strings.Join(cmd, " ")))
	res, err := e.runner.Run(ctx, ports.RunRequest{Command: cmd, Dir: workDir, Env: tc.Env})
	return res.Stdout + res.Stderr, err
}

func kindOf(path string) domain.ArtifactKind {
	switch filepath.Ext(path) {
	case ".so", ".dll", ".dylib":
		return domain.ArtifactSharedLibrary
	case ".tar", ".gz", ".zip":
		return domain.ArtifactArchive
	default:
		return domain.ArtifactExecutable
	}
}

func tail(s string) string {
	if len(s) <= outputTail {
		return s
	}
	return s[len(s)-outputTail:]
}
