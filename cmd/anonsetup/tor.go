package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/anonsetup/internal/flow"
)

// NewTorCmd creates the tor command.
func NewTorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tor",
		Short: "Route the host's traffic through the local Tor daemon",
		Long: `Tor installs the tor package and rewrites torrc so the daemon exposes
a SOCKS5 listener, a transparent proxy port and a DNS resolver port,
then points /etc/resolv.conf at that resolver and restarts the unit.

The whole run is one transaction: the touched files and the package
selection state are snapshotted first, and any failing step rolls the
host back to exactly that snapshot. Commented stock directives are
activated in place; missing ones are appended. Running the flow twice
changes nothing the second time.

After the restart the flow performs a real SOCKS5 handshake against the
configured port to prove the daemon answers.

Examples:
  # Configure Tor with the default ports
  anonsetup tor

  # Use obfs4 bridges (repeat the flag per bridge line)
  anonsetup tor --bridge "obfs4 192.0.2.9:443 FINGERPRINT cert=... iat-mode=0"

  # Skip the post-restart proxy verification
  anonsetup tor --skip-verify

  # Write a Markdown report to a file
  anonsetup tor --markdown --output tor-setup.md`,
		Args: cobra.NoArgs,
		RunE: runTorCmd,
	}

	cmd.Flags().StringArray("bridge", nil,
		"Bridge line added to torrc (repeatable, implies UseBridges 1)")
	cmd.Flags().Bool("skip-verify", false,
		"Skip the post-restart SOCKS5 proxy verification")
	addFlowFlags(cmd)

	return cmd
}

// runTorCmd executes the tor command.
func runTorCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildFlowConfig(cmd)
	if err != nil {
		return err
	}

	bridges, err := cmd.Flags().GetStringArray("bridge")
	if err != nil {
		return err
	}
	if len(bridges) > 0 {
		cfg.Tor.Bridges = bridges
	}

	skipVerify, err := cmd.Flags().GetBool("skip-verify")
	if err != nil {
		return err
	}
	if skipVerify {
		cfg.Tor.SkipVerify = true
	}

	return executeFlow(cfg, flow.FlowTor, flow.Tor)
}
