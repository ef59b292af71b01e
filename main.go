package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ghlangstats",
		Short: "Rank the languages used across the repositories of a GitHub user",
		Long: `ghlangstats aggregates the languages of a GitHub user's repositories and renders them
as an SVG chart, an HTML chart or a Markdown block injected into a README.

Commands:
  generate  fetch, rank and write the artifacts once
  serve     expose the rankings over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ghlangstats %s\n", version)
		},
	}
}
