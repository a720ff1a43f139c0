// Package cmd provides the command-line interface for memspace.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "memspace",
	Short: "Memspace simulates a first-fit, explicit free-list allocator.",
	Long: `Memspace simulates a first-fit, explicit free-list memory ` +
		`allocator over a fixed-size space of abstract words. The CLI can ` +
		`replay allocation scripts (run) and summarize recorded traces ` +
		`(report).`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// Defaults such as MEMSPACE_CAPACITY may come from a .env file.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
