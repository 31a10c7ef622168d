package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "perfcycle",
	Short: "Performance review cycle service",
	Long: `perfcycle runs the review-cycle API: goals, tasks, goal and task reviews,
self-assessments with manager feedback, in-app notifications and reports.

Configuration is read from the YAML file named by --config (or CONFIG_FILE)
and then overridden by environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, remindCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
