package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Run the full pipeline: test, build, verify, package, aggregate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.Release(cmd.Context(), c.options(cmd))
			return c.finish(report, err)
		},
	}
	targetFlags(cmd)
	return cmd
}
