// Package main provides the entry point for the anonsetup CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for anonsetup.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anonsetup",
		Short: "Transactional Tor, proxychains and WireGuard setup for Debian hosts",
		Long: `anonsetup configures a Debian host for anonymous networking in
transactions: every run snapshots the touched files and the package
selection state first, and any failing step rolls the host back to
exactly that snapshot. The host is only ever in the old state or the
new state, never in between.

Flows:
  tor           route the host's traffic through the local Tor daemon
  proxychains   point proxychains4 at the local Tor SOCKS port
  vpn           validate and install a WireGuard interface`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewTorCmd())
	cmd.AddCommand(NewProxychainsCmd())
	cmd.AddCommand(NewVPNCmd())
	cmd.AddCommand(NewSnapshotCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
