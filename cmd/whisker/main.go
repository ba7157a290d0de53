// Package main is the entry point for the Whisker CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "whisker",
		Short:        "Whisker: keyboard-driven image classification in the terminal",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to whisker.toml (default: search upward from the working directory)")

	root.AddCommand(
		initCmd(),
		annotateCmd(),
		squashCmd(),
		statusCmd(),
	)
	return root
}
