package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ziplock/relkit/internal/engine/orchestrator"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Cross-compile and verify the shared library for the requested targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.Build(cmd.Context(), c.options(cmd))
			return c.finish(report, err)
		},
	}
	targetFlags(cmd)
	return cmd
}

// finish prints the per-target summary and maps partial failure to a
// non-zero exit.
func (c *CLI) finish(report *orchestrator.Report, err error) error {
	if report != nil && len(report.Results) > 0 {
		fmt.Fprint(c.out, report.Summary())
	}
	if err != nil {
		return err
	}
	if report != nil && !report.Succeeded() {
		return fmt.Errorf("%d target(s) failed", len(report.Failed()))
	}
	return nil
}
