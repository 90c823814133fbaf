package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Commit and Date are set via ldflags at build time.
var (
	Commit = "unknown"
	Date   = "unknown"
)

// osExit is overridden in tests to avoid exiting the test process.
var osExit = func(code int) { os.Exit(code) }

var rootCmd = &cobra.Command{
	Use:   "g3",
	Short: "Plan-and-envelope verification core",
	Long:  `g3 enforces plan-and-envelope verification: agents submit facts about completed work, a rulespec checks them, and a keyed token attests the result.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Plan-and-envelope verification core")
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(1)
	}
}
