package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/flow"
)

// NewProxychainsCmd creates the proxychains command.
func NewProxychainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxychains",
		Short: "Point proxychains4 at the local Tor SOCKS port",
		Long: `Proxychains installs the proxychains4 package and rewrites its
configuration: conflicting chain-mode flags are cleared before the
configured one is pinned, proxy_dns is activated so DNS resolves
through the chain, and the stock socks4 entry is replaced with the
local Tor SOCKS5 proxy.

The whole run is one transaction that rolls back on any failure.

Examples:
  # Configure proxychains for the local Tor daemon
  anonsetup proxychains

  # Enforce strict chaining instead of the default dynamic_chain
  anonsetup proxychains --chain-mode strict_chain

  # Output a JSON report
  anonsetup proxychains --json`,
		Args: cobra.NoArgs,
		RunE: runProxychainsCmd,
	}

	cmd.Flags().String("chain-mode", "",
		"Chain mode to enforce, one of: "+strings.Join(config.ValidChainModes(), ", "))
	addFlowFlags(cmd)

	return cmd
}

// runProxychainsCmd executes the proxychains command.
func runProxychainsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildFlowConfig(cmd)
	if err != nil {
		return err
	}

	chainMode, err := cmd.Flags().GetString("chain-mode")
	if err != nil {
		return err
	}
	if chainMode != "" {
		cfg.Proxychains.ChainMode = chainMode
	}

	return executeFlow(cfg, flow.FlowProxychains, flow.Proxychains)
}
