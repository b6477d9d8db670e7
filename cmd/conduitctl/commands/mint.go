package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduitapp/conduit-api/internal/token"
	"github.com/conduitapp/conduit-api/internal/validation"
)

// NewMintCmd creates the mint command
func NewMintCmd() *cobra.Command {
	var login string
	var role string
	var printKey bool

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed token for local testing",
		Long: "Generate a fresh key pair and mint a token for the given login and role.\n" +
			"The server only accepts tokens signed with its own key pair, so tokens\n" +
			"minted here verify against the printed public key, not a running server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" {
				return fmt.Errorf("--login is required")
			}
			if err := validation.ValidateRole(role); err != nil {
				return err
			}

			keys, err := token.NewKeyMaterial()
			if err != nil {
				return fmt.Errorf("failed to generate key pair: %w", err)
			}

			codec := token.NewCodec(keys)
			signed, err := codec.Issue(token.Claims{
				Subject:  login,
				Username: login,
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			fmt.Println(signed)

			if printKey {
				enc := json.NewEncoder(os.Stderr)
				enc.SetIndent("", "  ")
				if err := enc.Encode(keys.PublicKey()); err != nil {
					return fmt.Errorf("failed to encode public key: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "Login to mint the token for (required)")
	cmd.Flags().StringVar(&role, "role", "USER", "Role claim (VISITOR, USER or ADMIN)")
	cmd.Flags().BoolVar(&printKey, "print-key", false, "Print the verifying public key as JWK to stderr")

	return cmd
}
