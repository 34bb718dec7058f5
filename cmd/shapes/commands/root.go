// ABOUTME: Root command wiring global flags and subcommands
// ABOUTME: Verbose and quiet adjust the log level and are mutually exclusive
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shapes",
		Short: "Classify shape requests with an LLM",
		Long: `
 ┌─┐┬ ┬┌─┐┌─┐┌─┐┌─┐
 └─┐├─┤├─┤├─┘├┤ └─┐
 └─┘┴ ┴┴ ┴┴  └─┘└─┘

Shapes turns a free-text request like "draw three circles" into a
structured result: which shape, how many, and whether the request made
sense at all. Requests run in the background and their outcome is
polled, so the caller never blocks on the model.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides SHAPES_CONFIG)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewClassifyCmd(),
		NewWatchCmd(),
		NewSchemaCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
