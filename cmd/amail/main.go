package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amail-io/amail-ce/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "amail",
	Short: "A-mail CLI - support-ticket backend management tool",
	Long: `A-mail Command Line Interface

Utilities for managing an A-mail ticketing deployment: seeding store
tables with sample data and inspecting the installation.`,
	Version: version.String(),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("A-mail CLI %s\n", version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
