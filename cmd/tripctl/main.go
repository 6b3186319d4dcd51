// Package main provides the tripctl command line for the trip planner.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOut bool
	noColor bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tripctl",
		Short: "Plan multi-city trips from the terminal",
		Long: `tripctl drives the trip planner without the HTTP server.

Examples:
  tripctl parse "5 days in Paris and 3 in Rome from London"
  tripctl chat
  tripctl modify trip.json "add Nice for 2 days"`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		parseCmd(),
		chatCmd(),
		modifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
