package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/solrelay/internal/cli"
	"github.com/example/solrelay/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "solrelay",
		Short:   "SolRelay - crypto-via-email escrow agent",
		Version: version.String(),
		Long: `SolRelay escrows crypto transfers addressed to an email and runs the
autonomous agent that reminds recipients, reclaims expired transfers,
and dispatches the outbound mail queue.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.AgentCmd())
	rootCmd.AddCommand(cli.TransferCmd())
	rootCmd.AddCommand(cli.MissionCmd())
	rootCmd.AddCommand(cli.BlockCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
