package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/flow"
	"github.com/nao1215/anonsetup/internal/transaction"
)

// NewVPNCmd creates the vpn command.
func NewVPNCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpn <config-file>",
		Short: "Validate and install a WireGuard interface",
		Long: `VPN validates the given WireGuard interface file and, only if it is
accepted, installs wireguard-tools, places the file at
/etc/wireguard/<interface>.conf with mode 0600 and enables the
wg-quick unit for it.

Validation checks the section grammar ([Interface] with PrivateKey and
Address, [Peer] with PublicKey, AllowedIPs and Endpoint) and that every
key decodes to 32 bytes of base64. A rejected file aborts the
transaction before anything on the host is touched; the private key
itself is never logged.

Examples:
  # Validate and install wg0
  anonsetup vpn wg0.conf

  # Install under a different interface name
  anonsetup vpn office.conf --interface wg1`,
		Args: cobra.ExactArgs(1),
		RunE: runVPNCmd,
	}

	cmd.Flags().StringP("interface", "i", "",
		"WireGuard interface name the file is installed as (default: wg0)")
	addFlowFlags(cmd)

	return cmd
}

// runVPNCmd executes the vpn command.
func runVPNCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildFlowConfig(cmd)
	if err != nil {
		return err
	}

	iface, err := cmd.Flags().GetString("interface")
	if err != nil {
		return err
	}
	if iface != "" {
		cfg.VPN.Interface = iface
	}

	configFile := args[0]
	return executeFlow(cfg, flow.FlowVPN, func(cfg *config.Config, deps flow.Deps) ([]transaction.Step, error) {
		return flow.VPN(cfg, configFile, deps)
	})
}
