package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/archonlabs/provgate/client"
	"github.com/archonlabs/provgate/routes"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	addType     string
	addBaseURL  string
	addServices []string
	addAPIKey   string
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage providers on a running server",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	RunE:  runProvidersList,
}

var providersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new provider",
	Long: `Register a new provider on a running server.

Examples:
  provgate providers add openai --type openai
  provgate providers add local-ollama --type ollama --base-url http://localhost:11434
  provgate providers add claude --type anthropic --api-key "$ANTHROPIC_API_KEY"`,
	Args: cobra.ExactArgs(1),
	RunE: runProvidersAdd,
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersAddCmd)

	providersCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8181", "provgate server URL")

	providersAddCmd.Flags().StringVar(&addType, "type", "", "provider type (openai, anthropic, ollama, ...)")
	providersAddCmd.Flags().StringVar(&addBaseURL, "base-url", "", "provider base URL")
	providersAddCmd.Flags().StringSliceVar(&addServices, "service", nil, "services the provider offers (default llm)")
	providersAddCmd.Flags().StringVar(&addAPIKey, "api-key", "", "API key to store for the provider")
	providersAddCmd.MarkFlagRequired("type")
}

// providerRow mirrors the server's provider response shape.
type providerRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	BaseURL string `json:"base_url"`
	Active  bool   `json:"active"`
	Primary bool   `json:"is_primary"`
	Health  string `json:"health_status"`
}

func apiClient() *client.Client {
	return client.New(client.Config{
		BaseURL: serverURL,
		Timeout: 10 * time.Second,
	})
}

func runProvidersList(cmd *cobra.Command, args []string) error {
	var resp struct {
		Providers []providerRow `json:"providers"`
		Total     int           `json:"total"`
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := apiClient().Get(ctx, routes.Providers.List.Path(), &resp); err != nil {
		return err
	}

	if resp.Total == 0 {
		fmt.Println("No providers configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tACTIVE\tPRIMARY\tHEALTH")
	for _, p := range resp.Providers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%s\n", p.ID, p.Name, p.Type, p.Active, p.Primary, p.Health)
	}
	return w.Flush()
}

func runProvidersAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	c := apiClient()

	body := map[string]any{
		"name": args[0],
		"type": addType,
	}
	if addBaseURL != "" {
		body["base_url"] = addBaseURL
	}
	if len(addServices) > 0 {
		body["services"] = addServices
	}

	var created providerRow
	if err := c.Post(ctx, routes.Providers.Create.Path(), body, &created); err != nil {
		return err
	}
	fmt.Printf("  %s Provider %s created (id %s)\n", checkMark, created.Name, created.ID)

	if addAPIKey == "" {
		return nil
	}

	credBody := map[string]any{"api_key": addAPIKey}
	if err := c.Post(ctx, routes.Providers.AddCredential.Path(created.ID), credBody, nil); err != nil {
		return fmt.Errorf("provider created but credential rejected: %w", err)
	}
	fmt.Printf("  %s Credential stored\n", checkMark)
	return nil
}
