package main

import (
	"fmt"
	"strings"

	"github.com/archonlabs/provgate/domain/credential"
	"github.com/spf13/cobra"
)

var checkkeyCmd = &cobra.Command{
	Use:   "checkkey <provider> <api-key>",
	Short: "Check an API key's format offline",
	Long: `Check whether an API key is plausibly well-formed for a provider,
without making any network calls. The key is never stored or sent
anywhere.

Known providers: ` + strings.Join(credential.Providers(), ", ") + `

Examples:
  provgate checkkey openai sk-...
  provgate checkkey anthropic "$ANTHROPIC_API_KEY"`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckKey,
}

func init() {
	rootCmd.AddCommand(checkkeyCmd)
}

func runCheckKey(cmd *cobra.Command, args []string) error {
	providerID, rawKey := args[0], args[1]

	result := credential.Validate(rawKey, providerID)

	for _, w := range result.Warnings {
		fmt.Printf("  ! %s (%s)\n", credential.Message(w), w.Code)
	}
	for _, e := range result.Errors {
		fmt.Printf("  %s %s (%s)\n", crossMark, credential.Message(e), e.Code)
	}

	if !result.Valid {
		return fmt.Errorf("key format is invalid for %s", providerID)
	}

	fmt.Printf("  %s Key format looks valid for %s\n", checkMark, providerID)
	return nil
}
