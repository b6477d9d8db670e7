package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduitapp/conduit-api/internal/auth"
)

// NewHashCmd creates the hash command
func NewHashCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Hash a password for seeding accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher := auth.BcryptHasher{Cost: cost}
			digest, err := hasher.Hash(args[0])
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Println(digest)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (0 uses the default)")

	return cmd
}
