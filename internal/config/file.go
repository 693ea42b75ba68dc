package config

import (
	"fmt"
	"time"
)

// TorSection is the tor section of the configuration file.
// Every field is optional; absent fields keep their defaults.
type TorSection struct {
	// TorrcPath overrides the torrc file location.
	TorrcPath string `yaml:"torrc_path,omitempty"`

	// ResolvConfPath overrides the resolver file location.
	ResolvConfPath string `yaml:"resolv_conf_path,omitempty"`

	// SocksPort, TransPort and DNSPort override the Tor listener ports.
	SocksPort int `yaml:"socks_port,omitempty"`
	TransPort int `yaml:"trans_port,omitempty"`
	DNSPort   int `yaml:"dns_port,omitempty"`

	// VirtualAddrNetwork overrides the VirtualAddrNetworkIPv4 value.
	VirtualAddrNetwork string `yaml:"virtual_addr_network,omitempty"`

	// Bridges are bridge lines added to torrc together with UseBridges 1.
	Bridges []string `yaml:"bridges,omitempty"`

	// Unit overrides the systemd unit name restarted after torrc edits.
	Unit string `yaml:"unit,omitempty"`

	// Packages overrides the package list installed by the tor flow.
	Packages []string `yaml:"packages,omitempty"`

	// ProxyCheckTimeout is a Go duration string such as "30s" or "1m".
	ProxyCheckTimeout string `yaml:"proxy_check_timeout,omitempty"`

	// SkipVerify disables the post-restart SOCKS5 verification step.
	SkipVerify bool `yaml:"skip_verify,omitempty"`
}

// ProxychainsSection is the proxychains section of the configuration file.
type ProxychainsSection struct {
	// ConfigPath overrides the proxychains configuration file location.
	ConfigPath string `yaml:"config_path,omitempty"`

	// ChainMode overrides the enforced chain mode.
	ChainMode string `yaml:"chain_mode,omitempty"`

	// ProxyLine overrides the proxy-list entry.
	ProxyLine string `yaml:"proxy_line,omitempty"`

	// Packages overrides the package list installed by the proxychains flow.
	Packages []string `yaml:"packages,omitempty"`
}

// VPNSection is the vpn section of the configuration file.
type VPNSection struct {
	// Dir overrides the WireGuard configuration directory.
	Dir string `yaml:"dir,omitempty"`

	// Interface overrides the WireGuard interface name.
	Interface string `yaml:"interface,omitempty"`

	// Packages overrides the package list installed by the vpn flow.
	Packages []string `yaml:"packages,omitempty"`
}

// SnapshotSection is the snapshot section of the configuration file.
type SnapshotSection struct {
	// Dir overrides the snapshot directory.
	Dir string `yaml:"dir,omitempty"`

	// Keep sets the snapshot retention count. 0 keeps everything.
	Keep int `yaml:"keep,omitempty"`
}

// File represents the structure of the anonsetup.yaml configuration file.
// It deliberately mirrors Config with its own types: the file schema uses
// human-friendly values (duration strings) where the runtime Config uses
// typed ones, and absent fields must be distinguishable from defaults.
type File struct {
	// Snapshot configures the snapshot store.
	Snapshot SnapshotSection `yaml:"snapshot,omitempty"`

	// WatchedFiles replaces the default watched file set when non-empty.
	WatchedFiles []string `yaml:"watched_files,omitempty"`

	// JournalDir overrides the transaction journal directory.
	JournalDir string `yaml:"journal_dir,omitempty"`

	// LockFile overrides the single-instance lock file path.
	LockFile string `yaml:"lock_file,omitempty"`

	// Tor, Proxychains and VPN override flow parameters.
	Tor         TorSection         `yaml:"tor,omitempty"`
	Proxychains ProxychainsSection `yaml:"proxychains,omitempty"`
	VPN         VPNSection         `yaml:"vpn,omitempty"`
}

// Apply merges the file values into cfg. Only fields present in the file
// override cfg; everything else keeps the value it already has, so the
// precedence is defaults, then file, then CLI flags applied by the caller.
func (cf *File) Apply(cfg *Config) error {
	if cf.Snapshot.Dir != "" {
		cfg.Snapshot.Dir = cf.Snapshot.Dir
	}
	if cf.Snapshot.Keep != 0 {
		cfg.Snapshot.Keep = cf.Snapshot.Keep
	}
	if len(cf.WatchedFiles) > 0 {
		cfg.WatchedFiles = cf.WatchedFiles
	}
	if cf.JournalDir != "" {
		cfg.JournalDir = cf.JournalDir
	}
	if cf.LockFile != "" {
		cfg.LockFile = cf.LockFile
	}

	if cf.Tor.TorrcPath != "" {
		cfg.Tor.TorrcPath = cf.Tor.TorrcPath
	}
	if cf.Tor.ResolvConfPath != "" {
		cfg.Tor.ResolvConfPath = cf.Tor.ResolvConfPath
	}
	if cf.Tor.SocksPort != 0 {
		cfg.Tor.SocksPort = cf.Tor.SocksPort
	}
	if cf.Tor.TransPort != 0 {
		cfg.Tor.TransPort = cf.Tor.TransPort
	}
	if cf.Tor.DNSPort != 0 {
		cfg.Tor.DNSPort = cf.Tor.DNSPort
	}
	if cf.Tor.VirtualAddrNetwork != "" {
		cfg.Tor.VirtualAddrNetwork = cf.Tor.VirtualAddrNetwork
	}
	if len(cf.Tor.Bridges) > 0 {
		cfg.Tor.Bridges = cf.Tor.Bridges
	}
	if cf.Tor.Unit != "" {
		cfg.Tor.Unit = cf.Tor.Unit
	}
	if len(cf.Tor.Packages) > 0 {
		cfg.Tor.Packages = cf.Tor.Packages
	}
	if cf.Tor.ProxyCheckTimeout != "" {
		d, err := time.ParseDuration(cf.Tor.ProxyCheckTimeout)
		if err != nil {
			return fmt.Errorf("invalid proxy_check_timeout: %w", err)
		}
		cfg.Tor.ProxyCheckTimeout = d
	}
	if cf.Tor.SkipVerify {
		cfg.Tor.SkipVerify = true
	}

	if cf.Proxychains.ConfigPath != "" {
		cfg.Proxychains.ConfigPath = cf.Proxychains.ConfigPath
	}
	if cf.Proxychains.ChainMode != "" {
		cfg.Proxychains.ChainMode = cf.Proxychains.ChainMode
	}
	if cf.Proxychains.ProxyLine != "" {
		cfg.Proxychains.ProxyLine = cf.Proxychains.ProxyLine
	}
	if len(cf.Proxychains.Packages) > 0 {
		cfg.Proxychains.Packages = cf.Proxychains.Packages
	}

	if cf.VPN.Dir != "" {
		cfg.VPN.Dir = cf.VPN.Dir
	}
	if cf.VPN.Interface != "" {
		cfg.VPN.Interface = cf.VPN.Interface
	}
	if len(cf.VPN.Packages) > 0 {
		cfg.VPN.Packages = cf.VPN.Packages
	}

	return nil
}
