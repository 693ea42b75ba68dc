package flow

import (
	"fmt"
	"strings"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/tor"
	"github.com/nao1215/anonsetup/internal/transaction"
)

// Flow names as they appear in transaction records and the journal.
const (
	// FlowTor routes the host's traffic through the local Tor daemon.
	FlowTor = "tor"

	// FlowProxychains points proxychains4 at the local Tor SOCKS port.
	FlowProxychains = "proxychains"

	// FlowVPN installs and enables a WireGuard interface.
	FlowVPN = "vpn"
)

// TorDirectives returns the torrc directives the tor flow pins, derived
// from cfg. The status command checks the same list, so "configured"
// means the same thing in both places.
func TorDirectives(cfg *config.Config) []string {
	t := cfg.Tor
	return []string{
		fmt.Sprintf("SocksPort %d", t.SocksPort),
		fmt.Sprintf("TransPort %d", t.TransPort),
		fmt.Sprintf("DNSPort %d", t.DNSPort),
		fmt.Sprintf("VirtualAddrNetworkIPv4 %s", t.VirtualAddrNetwork),
		"AutomapHostsOnResolve 1",
	}
}

// Tor builds the transparent-routing flow: install the daemon, activate
// and pin the torrc listener directives, optionally configure bridges,
// point the system resolver at Tor's DNSPort, restart the unit, and
// verify the SOCKS5 proxy answers.
//
// Each directive gets an uncomment step followed by a pin step. The
// uncomment activates a stock commented variant when one exists; the pin
// appends the wanted value when no line carries it yet. Running the flow
// twice changes nothing the second time.
func Tor(cfg *config.Config, deps Deps) ([]transaction.Step, error) {
	t := cfg.Tor

	steps := []transaction.Step{
		NewInstallPackagesStep(deps.Packages, t.Packages),
	}

	for _, directive := range TorDirectives(cfg) {
		key := strings.Fields(directive)[0]
		steps = append(steps,
			NewUncommentStep(deps.Editor, t.TorrcPath, key),
			NewEnsureLineStep("pin-"+key, deps.Editor, t.TorrcPath, directive),
		)
	}

	if len(t.Bridges) > 0 {
		steps = append(steps,
			NewEnsureLineStep("enable-bridges", deps.Editor, t.TorrcPath, "UseBridges 1"))
		for i, bridge := range t.Bridges {
			steps = append(steps, NewEnsureLineStep(
				fmt.Sprintf("add-bridge-%d", i+1),
				deps.Editor, t.TorrcPath, "Bridge "+bridge))
		}
	}

	steps = append(steps,
		NewRemoveMatchingStep("clear-nameservers", deps.Editor, t.ResolvConfPath, `\s*nameserver\s+.*`),
		NewEnsureLineStep("point-dns-at-tor", deps.Editor, t.ResolvConfPath, "nameserver 127.0.0.1"),
		NewRestartServiceStep(deps.Services, t.Unit),
	)

	if !t.SkipVerify {
		client, err := tor.NewClient(fmt.Sprintf("127.0.0.1:%d", t.SocksPort), t.ProxyCheckTimeout)
		if err != nil {
			return nil, fmt.Errorf("proxy verification setup failed: %w", err)
		}
		steps = append(steps, NewVerifyProxyStep(client))
	}

	return steps, nil
}
