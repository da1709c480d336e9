// Package cmd defines and implements the CLI commands for the errbeacon
// collector executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errbeacon",
		Short: "Out-of-band error collector for development sessions.",
		Long: `errbeacon receives failure payloads captured inside a development
session, renders them in the terminal where the dev loop runs, and exposes
health and metrics endpoints for the loop's tooling.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	cmd.AddCommand(newCollectCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
