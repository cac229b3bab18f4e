package main

import (
	"fmt"
	"os"

	"github.com/archonlabs/provgate/bootstrap"
	"github.com/archonlabs/provgate/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the provider admin API server",
	Long: `Start the provgate admin API server.

The server will:
  - Load configuration from provgate.yaml (or --config)
  - Or load configuration from PROVGATE_* environment variables
  - Open the credential database
  - Serve the provider administration API
  - Probe provider health on the configured interval

Environment variables (for Docker deployments):
  PROVGATE_ENCRYPTION_KEY   - Credential encryption key (required)
  PROVGATE_DATABASE_DSN     - Database path (default: provgate.db)
  PROVGATE_SERVER_PORT      - Server port (default: 8181)
  PROVGATE_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  provgate serve
  provgate serve --config /etc/provgate/config.yaml
  provgate serve --hot-reload=false

  # Docker (env vars only):
  PROVGATE_ENCRYPTION_KEY=$(provgate keygen -q) provgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	hasEnvConfig := config.HasEnvConfig()

	// No configuration at all
	if !hasConfigFile && !hasEnvConfig {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s with an encryption.key entry\n", cfgFile)
		fmt.Println("Option 2: Set PROVGATE_ENCRYPTION_KEY environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  PROVGATE_ENCRYPTION_KEY=$(provgate keygen -q) provgate serve")
		return nil
	}

	// Create application
	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		// Load config (file with env overrides, or env-only)
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
