package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Build, verify and produce installable packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.Package(cmd.Context(), c.options(cmd))
			return c.finish(report, err)
		},
	}
	targetFlags(cmd)
	return cmd
}
