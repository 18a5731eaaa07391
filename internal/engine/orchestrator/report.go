package orchestrator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ziplock/relkit/internal/core/domain"
)

// TargetResult is the terminal record of one target's run.
type TargetResult struct {
	Target   domain.BuildTarget
	Stage    Stage
	FailedAt Stage
	Err      error
	Warnings []string
	Artifact *domain.Artifact
	Verdict  *domain.VerificationVerdict
	Packages []domain.PackageDescriptor

	report *Report
}

// Report aggregates the per-target results of one run.
type Report struct {
	Version  domain.ReleaseVersion
	Checksum string
	Results  []*TargetResult
}

func newReport(targets []domain.BuildTarget) *Report {
	r := &Report{}
	for _, t := range targets {
		r.Results = append(r.Results, &TargetResult{Target: t, Stage: StagePending, report: r})
	}
	return r
}

// Succeeded reports whether every target reached Done.
func (r *Report) Succeeded() bool {
	for _, res := range r.Results {
		if res.Stage != StageDone {
			return false
		}
	}
	return true
}

// Failed returns the results of targets that failed.
func (r *Report) Failed() []*TargetResult {
	var failed []*TargetResult
	for _, res := range r.Results {
		if res.Stage == StageFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Descriptors collects every package descriptor produced in the run.
func (r *Report) Descriptors() []domain.PackageDescriptor {
	var descs []domain.PackageDescriptor
	for _, res := range r.Results {
		descs = append(descs, res.Packages...)
	}
	return descs
}

// failedMandatory returns the IDs of mandatory targets that failed.
func (r *Report) failedMandatory(mandatory []string) []string {
	var failed []string
	for _, res := range r.Failed() {
		if slices.Contains(mandatory, res.Target.ID()) {
			failed = append(failed, res.Target.ID())
		}
	}
	return failed
}

// Summary renders the final per-target overview for the CLI.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, res := range r.Results {
		switch res.Stage {
		case StageDone:
			fmt.Fprintf(&b, "  ok   %s", res.Target.ID())
			if res.Artifact != nil {
				fmt.Fprintf(&b, " (%s, %d bytes)", res.Artifact.Toolchain, res.Artifact.Size)
			}
		case StageFailed:
			fmt.Fprintf(&b, "  FAIL %s at %s: %v", res.Target.ID(), res.FailedAt, res.Err)
		default:
			fmt.Fprintf(&b, "  ??   %s (%s)", res.Target.ID(), res.Stage)
		}
		b.WriteString("\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "       warning: %s\n", w)
		}
	}
	return b.String()
}
