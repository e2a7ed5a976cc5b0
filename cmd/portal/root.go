package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:          "portal",
	Short:        "School feedback portal summary service",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(recoverStaleCmd)
	rootCmd.AddCommand(seedCmd)
}
