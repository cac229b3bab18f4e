package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "provgate",
	Short: "Provider administration service for AI model backends",
	Long: `Provgate manages AI model provider configuration for the Archon
backend: providers, encrypted API credentials, model catalogs, usage
accounting, and health monitoring.

Quick start:
  provgate keygen   # Generate an encryption key
  provgate serve    # Start the admin API server

Management:
  provgate providers  # List or add providers on a running server
  provgate checkkey   # Check an API key's format offline
  provgate validate   # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "provgate.yaml", "config file path")
}
