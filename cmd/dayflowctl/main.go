package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dayflowctl",
		Short: "Inspect and maintain a local DayFlow database",
		Long: `dayflowctl works directly on the DayFlow sqlite database.

Configuration is read the same way as the server: DAYFLOW_CONFIG (YAML)
plus environment overrides such as DATABASE_PATH and TIMEZONE.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newStreakCmd(),
		newRepairStreakCmd(),
		newPruneCmd(),
		newAnalyticsCmd(),
		newGCOrphansCmd(),
	)
	return rootCmd
}
