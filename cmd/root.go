// Package cmd implements the command-line interface for the foundersignal
// pipeline service.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Startup success-story collection and generation pipeline",
	Long: `Collects startup signals from launch boards, news feeds and code hosts,
validates them against external evidence and generates success stories.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so configuration sees its variables.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("pipeline version %s\n", version)
		},
	})

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(collectCommand())
	rootCmd.AddCommand(runCommand())
}
