package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mina",
		Short: "Synthetic arrival traces from multifractal cascades",
		Long: `mina fits a multiplicative cascade to a trace of arrival timestamps and
generates an unbounded synthetic trace with the same burstiness.

Run without a subcommand to generate:
  mina -i trace.txt -n 100000 > synthetic.txt
  mina --model-name web --format arrow -o web.arrow
  mina fit trace.txt --name web`,
		SilenceUsage: true,
		RunE:         runGenerate,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace (default from config)")

	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newFitCmd(),
		newModelsCmd(),
		newInspectCmd(),
		newStatsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
