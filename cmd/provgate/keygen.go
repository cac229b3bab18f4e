package main

import (
	"fmt"

	"github.com/archonlabs/provgate/adapters/crypto"
	"github.com/spf13/cobra"
)

var keygenQuiet bool

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a credential encryption key",
	Long: `Generate a fresh base64-encoded 32-byte encryption key.

Put the key in your config file:

  encryption:
    key: <generated key>

or export it as PROVGATE_ENCRYPTION_KEY. Losing the key makes stored
credentials unrecoverable, so keep it somewhere safe.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().BoolVarP(&keygenQuiet, "quiet", "q", false, "print only the key")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	if keygenQuiet {
		fmt.Println(key)
		return nil
	}

	fmt.Println("Generated encryption key:")
	fmt.Println()
	fmt.Printf("  %s\n", key)
	fmt.Println()
	fmt.Println("Add it to your config file under encryption.key, or export")
	fmt.Println("PROVGATE_ENCRYPTION_KEY. Stored credentials cannot be")
	fmt.Println("recovered without it.")
	return nil
}
