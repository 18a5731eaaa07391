// Package orchestrator sequences the release pipeline per target.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"github.com/ziplock/relkit/internal/engine/fallback"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Stage is the per-target pipeline state.
type Stage string

const (
	// StagePending indicates the target has not started yet.
	StagePending Stage = "Pending"
	// StageProbing indicates toolchain resolution is in progress.
	StageProbing Stage = "Probing"
	// StageBuilding indicates the build command chain is running.
	StageBuilding Stage = "Building"
	// StageVerifying indicates the artifact is being verified.
	StageVerifying Stage = "Verifying"
	// StagePackaging indicates packagers are running.
	StagePackaging Stage = "Packaging"
	// StageDone is terminal success.
	StageDone Stage = "Done"
	// StageFailed is terminal failure for that target only.
	StageFailed Stage = "Failed"
)

// Builder abstracts the build executor.
type Builder interface {
	Build(ctx context.Context, workDir string, target domain.BuildTarget, tc domain.ToolchainDescriptor) (domain.Artifact, error)
}

// Config carries the run-wide settings of one orchestration.
type Config struct {
	WorkDir   string
	OutputDir string
	Jobs      int

	// Mandatory lists target IDs whose failure fails the whole run.
	Mandatory []string

	// WithPackaging enables the propagate barrier and the packaging
	// stage. Disabled for plain builds.
	WithPackaging bool
}

// Orchestrator drives each target through the pipeline state machine,
// optionally in parallel, and aggregates per-target results.
type Orchestrator struct {
	resolver   ports.ToolchainResolver
	builder    Builder
	verifier   ports.Verifier
	propagator ports.Propagator
	packagers  map[domain.Platform][]ports.Packager
	telemetry  ports.Telemetry
	logger     ports.Logger

	mu     sync.RWMutex
	stages map[string]Stage
}

// New creates an orchestrator over the given stage implementations.
func New(
	resolver ports.ToolchainResolver,
	b Builder,
	verifier ports.Verifier,
	propagator ports.Propagator,
	packagers map[domain.Platform][]ports.Packager,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver:   resolver,
		builder:    b,
		verifier:   verifier,
		propagator: propagator,
		packagers:  packagers,
		telemetry:  telemetry,
		logger:     logger,
		stages:     make(map[string]Stage),
	}
}

// Run executes the pipeline for all targets. Target-scoped failures are
// collected into the report; run-scoped errors (configuration,
// version/checksum inconsistency) abort and are returned.
func (o *Orchestrator) Run(ctx context.Context, targets []domain.BuildTarget, cfg Config) (*Report, error) {
	report := newReport(targets)
	for _, t := range targets {
		o.setStage(t.ID(), StagePending)
	}

	// The propagate barrier: version and checksum are established, and
	// templates rewritten, before any packager runs for any target.
	if cfg.WithPackaging {
		vertex := o.telemetry.Record("propagate version/checksum")
		version, checksum, err := o.propagator.Prepare(ctx)
		vertex.Complete(err)
		if err != nil {
			return report, zerr.Wrap(err, "version/checksum propagation failed")
		}
		report.Version = version
		report.Checksum = checksum
	}

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, result := range report.Results {
		g.Go(func() error {
			o.runTarget(gctx, result, cfg)
			// Target failures never cancel sibling targets; only
			// context cancellation stops the group.
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if cfg.WithPackaging {
		if err := o.propagator.Validate(report.Descriptors()); err != nil {
			return report, err
		}
	}

	if failed := report.failedMandatory(cfg.Mandatory); len(failed) > 0 {
		return report, zerr.With(zerr.Wrap(domain.ErrBuild, "mandatory target failed"),
			"targets", failed)
	}

	return report, nil
}

// runTarget advances one target through the state machine. Any error is
// terminal for that target only.
func (o *Orchestrator) runTarget(ctx context.Context, result *TargetResult, cfg Config) {
	target := result.Target

	fail := func(stage Stage, err error) {
		o.setStage(target.ID(), StageFailed)
		result.Stage = StageFailed
		result.FailedAt = stage
		result.Err = zerr.With(zerr.With(err, "target", target.ID()), "stage", string(stage))
		o.logger.Error(result.Err)
	}

	// Probing: resolve the toolchain fallback chain.
	o.setStage(target.ID(), StageProbing)
	chains, err := o.resolver.Chains(ctx, cfg.WorkDir, target)
	if err != nil {
		fail(StageProbing, err)
		return
	}

	// Building: try the chain, advancing on failure.
	o.setStage(target.ID(), StageBuilding)
	vertex := o.telemetry.Record(fmt.Sprintf("build %s", target.ID()))
	var artifact domain.Artifact
	outcome, err := fallback.Run(ctx, chains,
		func(tc domain.ToolchainDescriptor) string { return tc.Name },
		func(ctx context.Context, tc domain.ToolchainDescriptor) error {
			built, buildErr := o.builder.Build(ctx, cfg.WorkDir, target, tc)
			if buildErr != nil {
				return buildErr
			}
			artifact = built
			return nil
		})
	vertex.Complete(err)
	result.Warnings = append(result.Warnings, outcome.Warnings...)
	for _, w := range outcome.Warnings {
		o.logger.Warn(w)
	}
	if err != nil {
		fail(StageBuilding, err)
		return
	}

	// Verifying: exactly once per artifact.
	o.setStage(target.ID(), StageVerifying)
	verdict := o.verifier.Verify(artifact)
	result.Verdict = &verdict
	if !verdict.Passed {
		fail(StageVerifying, zerr.With(
			zerr.Wrap(domain.ErrVerification, "artifact failed verification"),
			"reasons", verdict.Reasons))
		return
	}
	result.Artifact = &verdict.Artifact

	// Packaging: only verified artifacts reach the packagers.
	if cfg.WithPackaging {
		o.setStage(target.ID(), StagePackaging)
		if err := o.packageTarget(ctx, result, cfg); err != nil {
			fail(StagePackaging, err)
			return
		}
	}

	o.setStage(target.ID(), StageDone)
	result.Stage = StageDone
}

func (o *Orchestrator) packageTarget(ctx context.Context, result *TargetResult, cfg Config) error {
	var errs error
	for _, p := range o.packagers[result.Target.Platform] {
		vertex := o.telemetry.Record(fmt.Sprintf("package %s (%s)", result.Target.ID(), p.Format()))
		desc, err := p.Package(ctx, ports.PackageInput{
			Artifacts: []domain.Artifact{*result.Artifact},
			Version:   result.report.Version,
			Checksum:  result.report.Checksum,
			WorkDir:   cfg.WorkDir,
			OutputDir: cfg.OutputDir,
		})
		vertex.Complete(err)
		if err != nil {
			errs = errors.Join(errs, zerr.With(err, "format", string(p.Format())))
			continue
		}
		result.Packages = append(result.Packages, desc)
	}
	return errs
}

// setStage updates the per-target stage under the status lock.
func (o *Orchestrator) setStage(id string, stage Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages[id] = stage
}

// StageOf reports the current stage of a target.
func (o *Orchestrator) StageOf(id string) Stage {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stages[id]
}
