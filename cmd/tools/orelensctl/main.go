// Command orelensctl runs production analyses and renders reports from the
// command line, without starting the HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "orelensctl",
		Short: "Analyze mine production time series",
		Long: `orelensctl analyzes daily production sheets: anomaly detection
(IQR, Z-score, moving-average percentage, Grubbs), polynomial trend and
summary statistics for every mine and their Total.

Commands:
  analyze    Print a summary table or the full JSON result
  report     Render an HTML or PDF report
  detectors  List the anomaly detectors`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newReportCommand())
	root.AddCommand(detectorsCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orelensctl %s (commit: %s)\n", Version, GitCommit)
		},
	}
}
