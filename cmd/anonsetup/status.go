package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/editor"
	"github.com/nao1215/anonsetup/internal/flow"
	"github.com/nao1215/anonsetup/internal/system"
	"github.com/nao1215/anonsetup/internal/tor"
)

// unitChecker is the systemd surface the status probes need.
// *system.ServiceManager implements it.
type unitChecker interface {
	IsActive(ctx context.Context, unit string) (bool, error)
}

// probeResult is one line of status output.
type probeResult struct {
	// name labels the layer being probed.
	name string
	// ok reports whether the layer is in its configured state.
	ok bool
	// known is false when the probe could not determine the state.
	known bool
	// detail is the human readable one-liner.
	detail string
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which anonymity layers are configured and answering",
		Long: `Status probes the host read-only: whether the tor unit is active,
whether the SOCKS5 proxy completes a handshake, whether the torrc
directives and the resolv.conf redirect are in place, and whether
proxychains and WireGuard are configured.

Nothing is modified and no snapshot is taken.`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: /etc/anonsetup.yaml, then XDG locations)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	client, err := tor.NewClient(fmt.Sprintf("127.0.0.1:%d", cfg.Tor.SocksPort), cfg.Tor.ProxyCheckTimeout)
	if err != nil {
		return fmt.Errorf("proxy probe setup failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Tor.ProxyCheckTimeout)
	defer cancel()

	results := gatherStatus(ctx, cfg,
		editor.New(editor.WithLogger(logger)),
		system.NewServiceManager(system.WithServiceLogger(logger)),
		client)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "anonsetup status\n\n")
	for _, result := range results {
		indicator := "[+]"
		switch {
		case !result.known:
			indicator = "[?]"
		case !result.ok:
			indicator = "[x]"
		}
		fmt.Fprintf(out, "  %s %-12s %s\n", indicator, result.name, result.detail)
	}
	return nil
}

// gatherStatus runs all probes concurrently and returns their results in
// display order. Probes record what they find, including "could not
// determine"; none of them fails the command.
func gatherStatus(ctx context.Context, cfg *config.Config, ed *editor.Editor, units unitChecker, proxy flow.ProxyChecker) []probeResult {
	// Pre-allocate so each probe writes its own slot and order is stable.
	results := make([]probeResult, 6)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results[0] = probeUnit(ctx, units, cfg.Tor.Unit)
		return nil
	})
	g.Go(func() error {
		results[1] = probeProxy(ctx, proxy, cfg.Tor.SocksPort)
		return nil
	})
	g.Go(func() error {
		results[2] = probeTorrc(cfg, ed)
		return nil
	})
	g.Go(func() error {
		results[3] = probeResolv(cfg, ed)
		return nil
	})
	g.Go(func() error {
		results[4] = probeProxychains(cfg, ed)
		return nil
	})
	g.Go(func() error {
		results[5] = probeWireGuard(cfg)
		return nil
	})

	_ = g.Wait() //nolint:errcheck // probes record failures instead of returning them

	return results
}

// probeUnit checks whether the tor systemd unit is active.
func probeUnit(ctx context.Context, units unitChecker, unit string) probeResult {
	result := probeResult{name: "tor unit", known: true}

	active, err := units.IsActive(ctx, unit)
	if err != nil {
		result.known = false
		result.detail = fmt.Sprintf("cannot query systemd: %v", err)
		return result
	}

	result.ok = active
	if active {
		result.detail = fmt.Sprintf("%s is active", unit)
	} else {
		result.detail = fmt.Sprintf("%s is not active", unit)
	}
	return result
}

// probeProxy performs a SOCKS5 handshake against the local proxy.
func probeProxy(ctx context.Context, proxy flow.ProxyChecker, port int) probeResult {
	status := proxy.CheckConnection(ctx)
	return probeResult{
		name:   "socks5 proxy",
		ok:     status == tor.ProxyStatusOK,
		known:  true,
		detail: fmt.Sprintf("%s (127.0.0.1:%d)", status, port),
	}
}

// probeTorrc counts how many of the managed torrc directives are pinned.
func probeTorrc(cfg *config.Config, ed *editor.Editor) probeResult {
	result := probeResult{name: "torrc", known: true}

	directives := flow.TorDirectives(cfg)
	present := 0
	for _, directive := range directives {
		has, err := ed.HasLine(cfg.Tor.TorrcPath, directive)
		if err != nil {
			result.known = false
			result.detail = fmt.Sprintf("cannot read %s: %v", cfg.Tor.TorrcPath, err)
			return result
		}
		if has {
			present++
		}
	}

	result.ok = present == len(directives)
	result.detail = fmt.Sprintf("%d/%d directives pinned in %s", present, len(directives), cfg.Tor.TorrcPath)
	return result
}

// probeResolv checks whether name resolution is pointed at Tor.
func probeResolv(cfg *config.Config, ed *editor.Editor) probeResult {
	result := probeResult{name: "dns", known: true}

	has, err := ed.HasLine(cfg.Tor.ResolvConfPath, "nameserver 127.0.0.1")
	if err != nil {
		result.known = false
		result.detail = fmt.Sprintf("cannot read %s: %v", cfg.Tor.ResolvConfPath, err)
		return result
	}

	result.ok = has
	if has {
		result.detail = fmt.Sprintf("%s points at Tor", cfg.Tor.ResolvConfPath)
	} else {
		result.detail = fmt.Sprintf("%s not pointed at Tor", cfg.Tor.ResolvConfPath)
	}
	return result
}

// probeProxychains checks for the configured proxy list entry.
func probeProxychains(cfg *config.Config, ed *editor.Editor) probeResult {
	result := probeResult{name: "proxychains", known: true}

	has, err := ed.HasLine(cfg.Proxychains.ConfigPath, cfg.Proxychains.ProxyLine)
	if err != nil {
		result.known = false
		result.detail = fmt.Sprintf("cannot read %s: %v", cfg.Proxychains.ConfigPath, err)
		return result
	}

	result.ok = has
	if has {
		result.detail = fmt.Sprintf("%q entry present", cfg.Proxychains.ProxyLine)
	} else {
		result.detail = "no Tor proxy entry"
	}
	return result
}

// probeWireGuard checks whether the interface file is installed.
func probeWireGuard(cfg *config.Config) probeResult {
	result := probeResult{name: "wireguard", known: true}

	path := filepath.Join(cfg.VPN.Dir, cfg.VPN.Interface+".conf")
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			result.known = false
			result.detail = fmt.Sprintf("cannot stat %s: %v", path, err)
			return result
		}
		result.detail = fmt.Sprintf("%s not installed", path)
		return result
	}

	result.ok = true
	result.detail = fmt.Sprintf("%s installed", path)
	return result
}
