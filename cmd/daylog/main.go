package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "daylog",
	Short: "Local-first daily health tracker",
	Long: `daylog keeps append-only logs of meds, supplements, workouts, food
and body weight, and maintains a per-day summary for each.

The server (daylog start) owns the data and serves a local REST API plus
an MCP server on stdio; every other command talks to it.`,
	Version:      version,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(medCmd)
	rootCmd.AddCommand(workoutCmd)
	rootCmd.AddCommand(foodCmd)
	rootCmd.AddCommand(weighCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(showCmd)

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(configCmd)
}
