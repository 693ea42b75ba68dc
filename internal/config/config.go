package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The Tor directive values follow the transparent-proxy setup documented in
// the Tor manual; the file locations are the Debian package defaults.
const (
	// DefaultTorrcPath is where the Debian tor package installs its
	// configuration file.
	DefaultTorrcPath = "/etc/tor/torrc"

	// DefaultResolvConfPath is the resolver configuration rewritten by the
	// tor flow so DNS queries go through Tor's DNSPort.
	DefaultResolvConfPath = "/etc/resolv.conf"

	// DefaultProxychainsPath is the proxychains4 configuration file.
	DefaultProxychainsPath = "/etc/proxychains4.conf"

	// DefaultWireGuardDir is where wg-quick looks for interface files.
	DefaultWireGuardDir = "/etc/wireguard"

	// DefaultSocksPort is the standard Tor SOCKS port. We keep the stock
	// value rather than a custom port so existing clients keep working.
	DefaultSocksPort = 9050

	// DefaultTransPort is the port for Tor's transparent proxy listener.
	DefaultTransPort = 9040

	// DefaultDNSPort is the port for Tor's DNS resolver listener.
	// 5353 avoids colliding with a local resolver already bound to 53.
	DefaultDNSPort = 5353

	// DefaultVirtualAddrNetwork is the address range Tor uses to map
	// .onion names when AutomapHostsOnResolve is enabled.
	DefaultVirtualAddrNetwork = "10.192.0.0/10"

	// DefaultChainMode is the proxychains chain mode the proxychains flow
	// enforces. dynamic_chain skips dead proxies instead of failing.
	DefaultChainMode = "dynamic_chain"

	// DefaultProxyLine is the proxy entry appended to the proxychains
	// proxy list, pointing at the local Tor SOCKS port.
	DefaultProxyLine = "socks5 127.0.0.1 9050"

	// DefaultVPNInterface is the WireGuard interface name used when the
	// caller does not pick one.
	DefaultVPNInterface = "wg0"

	// DefaultTorUnit is the systemd unit restarted after torrc changes.
	DefaultTorUnit = "tor"

	// DefaultProxyCheckTimeout bounds the post-setup SOCKS5 verification.
	// Tor needs a moment to open its listeners after a restart, so this is
	// more generous than a plain TCP connect timeout.
	DefaultProxyCheckTimeout = 30 * time.Second

	// DefaultKeepSnapshots of 0 keeps every snapshot. Older snapshots stay
	// valid rollback targets, so pruning is strictly opt-in.
	DefaultKeepSnapshots = 0

	// AppName is the application name used for XDG directory paths.
	AppName = "anonsetup"
)

// DefaultWatchedFiles returns the fixed set of configuration files the
// snapshot store captures before every transaction. Files that do not exist
// yet (e.g. a WireGuard config before the first vpn run) are recorded as
// absent and removed again on rollback.
func DefaultWatchedFiles() []string {
	return []string{
		DefaultTorrcPath,
		DefaultResolvConfPath,
		DefaultProxychainsPath,
		filepath.Join(DefaultWireGuardDir, DefaultVPNInterface+".conf"),
	}
}

// TorConfig holds the parameters of the Tor transparent-routing flow.
type TorConfig struct {
	// TorrcPath is the Tor daemon configuration file to edit.
	TorrcPath string

	// ResolvConfPath is the resolver file pointed at Tor's DNSPort.
	ResolvConfPath string

	// SocksPort, TransPort and DNSPort are the listener ports written
	// into torrc.
	SocksPort int
	TransPort int
	DNSPort   int

	// VirtualAddrNetwork is the VirtualAddrNetworkIPv4 directive value.
	VirtualAddrNetwork string

	// Bridges holds bridge lines ("obfs4 x.x.x.x:port FINGERPRINT ...")
	// added to torrc together with UseBridges 1. Empty means no bridges.
	Bridges []string

	// Unit is the systemd unit restarted after editing torrc.
	Unit string

	// Packages are installed before the torrc edits run.
	Packages []string

	// ProxyCheckTimeout bounds the post-restart SOCKS5 verification.
	ProxyCheckTimeout time.Duration

	// SkipVerify disables the post-restart SOCKS5 verification step.
	SkipVerify bool
}

// ProxychainsConfig holds the parameters of the proxychains flow.
type ProxychainsConfig struct {
	// ConfigPath is the proxychains configuration file to edit.
	ConfigPath string

	// ChainMode is the chain-mode flag enforced in the config file.
	// One of dynamic_chain, strict_chain, random_chain, round_robin_chain.
	ChainMode string

	// ProxyLine is the proxy-list entry appended to the file.
	ProxyLine string

	// Packages are installed before the edits run.
	Packages []string
}

// VPNConfig holds the parameters of the WireGuard vpn flow.
type VPNConfig struct {
	// Dir is the directory wg-quick reads interface files from.
	Dir string

	// Interface is the WireGuard interface name; the validated input file
	// is installed as <Dir>/<Interface>.conf.
	Interface string

	// Packages are installed before the interface file is placed.
	Packages []string
}

// SnapshotConfig holds snapshot store settings.
type SnapshotConfig struct {
	// Dir is the directory snapshots are created under.
	Dir string

	// Keep is the retention policy applied after a committed transaction:
	// the newest Keep snapshots survive, older ones are pruned.
	// 0 keeps everything.
	Keep int
}

// Config holds all configuration options for anonsetup.
// It is populated from defaults, then the optional YAML file, then CLI
// flags, and passed through the application via dependency injection
// rather than global state.
type Config struct {
	// Snapshot configures the snapshot store.
	Snapshot SnapshotConfig

	// WatchedFiles is the fixed set of files captured by every snapshot.
	WatchedFiles []string

	// JournalDir is the directory holding the SQLite transaction journal.
	JournalDir string

	// LockFile is the path of the single-instance transaction lock.
	LockFile string

	// Tor, Proxychains and VPN parameterize the three setup flows.
	Tor         TorConfig
	Proxychains ProxychainsConfig
	VPN         VPNConfig

	// ConfigFilePath is the YAML file the configuration was loaded from.
	// Empty when only defaults and flags were used.
	ConfigFilePath string

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	MarkdownReport bool

	// ReportFile is the output file path for the transaction report.
	// When empty the report goes to stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to the documented defaults; callers override specific
// values after creation.
func NewConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Dir:  filepath.Join(XDGDataDir(), "snapshots"),
			Keep: DefaultKeepSnapshots,
		},
		WatchedFiles: DefaultWatchedFiles(),
		JournalDir:   XDGDataDir(),
		LockFile:     DefaultLockFile(),
		Tor: TorConfig{
			TorrcPath:          DefaultTorrcPath,
			ResolvConfPath:     DefaultResolvConfPath,
			SocksPort:          DefaultSocksPort,
			TransPort:          DefaultTransPort,
			DNSPort:            DefaultDNSPort,
			VirtualAddrNetwork: DefaultVirtualAddrNetwork,
			Unit:               DefaultTorUnit,
			Packages:           []string{"tor"},
			ProxyCheckTimeout:  DefaultProxyCheckTimeout,
		},
		Proxychains: ProxychainsConfig{
			ConfigPath: DefaultProxychainsPath,
			ChainMode:  DefaultChainMode,
			ProxyLine:  DefaultProxyLine,
			Packages:   []string{"proxychains4"},
		},
		VPN: VPNConfig{
			Dir:       DefaultWireGuardDir,
			Interface: DefaultVPNInterface,
			Packages:  []string{"wireguard-tools"},
		},
	}
}

// XDGDataDir returns the XDG data directory for anonsetup.
// On Linux: ~/.local/share/anonsetup (or /root/.local/share/anonsetup).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for anonsetup.
// On Linux: ~/.config/anonsetup.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultLockFile returns the default path of the single-instance lock.
// The XDG runtime dir disappears on logout, which conveniently clears a
// stale lock after a crash; when it is unset we fall back to the system
// temp directory.
func DefaultLockFile() string {
	dir := xdg.RuntimeDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName+".lock")
}

// validChainModes are the chain-mode flags proxychains understands.
var validChainModes = map[string]bool{
	"dynamic_chain":     true,
	"strict_chain":      true,
	"random_chain":      true,
	"round_robin_chain": true,
}

// ValidChainModes returns the accepted proxychains chain modes.
// Used for flag help text and error messages.
func ValidChainModes() []string {
	return []string{"dynamic_chain", "strict_chain", "random_chain", "round_robin_chain"}
}

// Validate checks if the configuration is valid.
// It returns the first error found; fixing one error often makes others
// irrelevant, so we do not collect them.
func (c *Config) Validate() error {
	if len(c.WatchedFiles) == 0 {
		return ErrNoWatchedFiles
	}

	if c.Snapshot.Keep < 0 {
		return ErrInvalidKeepSnapshots
	}

	for _, port := range []int{c.Tor.SocksPort, c.Tor.TransPort, c.Tor.DNSPort} {
		if port < 1 || port > 65535 {
			return ErrInvalidPort
		}
	}

	if !validChainModes[c.Proxychains.ChainMode] {
		return ErrInvalidChainMode
	}

	if c.VPN.Interface == "" || filepath.Base(c.VPN.Interface) != c.VPN.Interface {
		return ErrInvalidInterfaceName
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
