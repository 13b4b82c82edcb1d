// Command api runs the API performance monitor.
//
//	api serve [--targets targets.yaml]
//	api validate [--targets targets.yaml]
//	api version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set via -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Periodic API health monitor",
	Long: `Polls a fixed set of HTTP endpoints, records latency and outcome of every
probe, and serves the most recent observations over HTTP.

Settings come from the environment (API_ADDR, LOG_DIR, DATABASE_URL,
SQLITE_PATH, PROBE_INTERVAL_MS, ...). Targets come from a YAML file given
with --targets or TARGETS_FILE; without one a built-in set is monitored.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apimonitor %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().String("targets", "", "path to a YAML targets file (overrides TARGETS_FILE)")
	rootCmd.AddCommand(versionCmd, serveCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
