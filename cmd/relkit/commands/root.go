// Package commands implements the CLI commands for the relkit release tool.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ziplock/relkit/internal/app"
	"github.com/ziplock/relkit/internal/build"
)

// CLI represents the command line interface for relkit.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
	out     io.Writer
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "relkit",
		Short:         "Build, verify and package ZipLock releases for every platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.PersistentFlags().String("config", "relkit.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo every spawned command")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
		out:     os.Stdout,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		configName, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		a.SetConfigFile(configName)

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		a.SetVerbose(verbose)
		return nil
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newPackageCmd())
	rootCmd.AddCommand(c.newReleaseCmd())
	rootCmd.AddCommand(c.newTestCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects the summary output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// targetFlags registers the flags shared by every pipeline verb.
func targetFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("platform", "p", []string{"linux"}, "Platforms to build (linux, android, windows, all)")
	cmd.Flags().StringSliceP("arch", "a", nil, "Restrict architectures (default: all for each platform)")
	cmd.Flags().String("profile", "", "Build profile (debug or release)")
	cmd.Flags().BoolP("clean", "c", false, "Run cargo clean before building")
	cmd.Flags().StringP("output", "o", "dist", "Output directory")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum concurrent targets (0 = number of CPUs)")
	cmd.Flags().Bool("skip-tests", false, "Skip the workspace test suite (release only)")
}

// options collects the shared flags into app options.
func (c *CLI) options(cmd *cobra.Command) app.Options {
	platforms, _ := cmd.Flags().GetStringSlice("platform")
	arches, _ := cmd.Flags().GetStringSlice("arch")
	profile, _ := cmd.Flags().GetString("profile")
	clean, _ := cmd.Flags().GetBool("clean")
	skipTests, _ := cmd.Flags().GetBool("skip-tests")
	output, _ := cmd.Flags().GetString("output")
	jobs, _ := cmd.Flags().GetInt("jobs")
	verbose, _ := cmd.Flags().GetBool("verbose")

	return app.Options{
		Platforms: platforms,
		Arches:    arches,
		Profile:   profile,
		Clean:     clean,
		SkipTests: skipTests,
		Verbose:   verbose,
		Output:    output,
		Jobs:      jobs,
		WorkDir:   ".",
	}
}
