package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduitapp/conduit-api/cmd/conduitctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "conduitctl",
		Short: "Operator tool for the Conduit API",
		Long:  "CLI tool for minting test tokens, hashing passwords and running migrations",
	}

	rootCmd.AddCommand(commands.NewMintCmd())
	rootCmd.AddCommand(commands.NewHashCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
