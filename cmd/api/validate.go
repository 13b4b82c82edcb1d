package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and targets without starting",
	Long: `Parse the environment and the targets file and report every problem
found. Exits non-zero when the configuration is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, targets, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Config is valid!")
		fmt.Fprintf(out, "  Addr:    %s\n", cfg.Addr)
		if cfg.DatabaseURL != "" {
			fmt.Fprintln(out, "  Store:   postgres")
		} else {
			fmt.Fprintf(out, "  Store:   sqlite (%s)\n", cfg.SQLitePath)
		}
		fmt.Fprintf(out, "  Targets: %d\n", len(targets))
		for _, t := range targets {
			fmt.Fprintf(out, "    %-20s every %-6s timeout %-5s %s\n", t.Name, t.Interval, t.Timeout, t.URL)
		}
		return nil
	},
}
