package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// This test ensures that defaults are documented through tests and that changes
// to defaults are intentional (tests will fail if defaults change unexpectedly).
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	// Verify each default value explicitly
	// This serves as living documentation of the defaults
	t.Run("default TorrcPath is /etc/tor/torrc", func(t *testing.T) {
		t.Parallel()
		if cfg.Tor.TorrcPath != "/etc/tor/torrc" {
			t.Errorf("expected TorrcPath to be '/etc/tor/torrc', got '%s'", cfg.Tor.TorrcPath)
		}
	})

	t.Run("default SocksPort is 9050", func(t *testing.T) {
		t.Parallel()
		if cfg.Tor.SocksPort != 9050 {
			t.Errorf("expected SocksPort to be 9050, got %d", cfg.Tor.SocksPort)
		}
	})

	t.Run("default TransPort is 9040", func(t *testing.T) {
		t.Parallel()
		if cfg.Tor.TransPort != 9040 {
			t.Errorf("expected TransPort to be 9040, got %d", cfg.Tor.TransPort)
		}
	})

	t.Run("default DNSPort is 5353", func(t *testing.T) {
		t.Parallel()
		if cfg.Tor.DNSPort != 5353 {
			t.Errorf("expected DNSPort to be 5353, got %d", cfg.Tor.DNSPort)
		}
	})

	t.Run("default ProxyCheckTimeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Tor.ProxyCheckTimeout != 30*time.Second {
			t.Errorf("expected ProxyCheckTimeout to be 30s, got %v", cfg.Tor.ProxyCheckTimeout)
		}
	})

	t.Run("default tor unit is tor", func(t *testing.T) {
		t.Parallel()
		if cfg.Tor.Unit != "tor" {
			t.Errorf("expected Unit to be 'tor', got '%s'", cfg.Tor.Unit)
		}
	})

	t.Run("default chain mode is dynamic_chain", func(t *testing.T) {
		t.Parallel()
		if cfg.Proxychains.ChainMode != "dynamic_chain" {
			t.Errorf("expected ChainMode to be 'dynamic_chain', got '%s'", cfg.Proxychains.ChainMode)
		}
	})

	t.Run("default proxy line points at local tor", func(t *testing.T) {
		t.Parallel()
		if cfg.Proxychains.ProxyLine != "socks5 127.0.0.1 9050" {
			t.Errorf("expected proxy line 'socks5 127.0.0.1 9050', got '%s'", cfg.Proxychains.ProxyLine)
		}
	})

	t.Run("default VPN interface is wg0", func(t *testing.T) {
		t.Parallel()
		if cfg.VPN.Interface != "wg0" {
			t.Errorf("expected Interface to be 'wg0', got '%s'", cfg.VPN.Interface)
		}
	})

	t.Run("default snapshot retention keeps everything", func(t *testing.T) {
		t.Parallel()
		if cfg.Snapshot.Keep != 0 {
			t.Errorf("expected Keep to be 0, got %d", cfg.Snapshot.Keep)
		}
	})

	t.Run("default watched files cover all three flows", func(t *testing.T) {
		t.Parallel()
		want := []string{
			"/etc/tor/torrc",
			"/etc/resolv.conf",
			"/etc/proxychains4.conf",
			"/etc/wireguard/wg0.conf",
		}
		if len(cfg.WatchedFiles) != len(want) {
			t.Fatalf("expected %d watched files, got %d", len(want), len(cfg.WatchedFiles))
		}
		for i, path := range want {
			if cfg.WatchedFiles[i] != path {
				t.Errorf("expected watched file %d to be %q, got %q", i, path, cfg.WatchedFiles[i])
			}
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("empty watched files returns ErrNoWatchedFiles", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.WatchedFiles = nil

		err := cfg.Validate()
		if !errors.Is(err, ErrNoWatchedFiles) {
			t.Errorf("expected ErrNoWatchedFiles, got %v", err)
		}
	})

	t.Run("negative keep returns ErrInvalidKeepSnapshots", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Snapshot.Keep = -1

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidKeepSnapshots) {
			t.Errorf("expected ErrInvalidKeepSnapshots, got %v", err)
		}
	})

	t.Run("zero socks port returns ErrInvalidPort", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Tor.SocksPort = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("out of range dns port returns ErrInvalidPort", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Tor.DNSPort = 70000

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("unknown chain mode returns ErrInvalidChainMode", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Proxychains.ChainMode = "fastest_chain"

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidChainMode) {
			t.Errorf("expected ErrInvalidChainMode, got %v", err)
		}
	})

	t.Run("every documented chain mode is valid", func(t *testing.T) {
		t.Parallel()
		for _, mode := range ValidChainModes() {
			cfg := NewConfig()
			cfg.Proxychains.ChainMode = mode
			if err := cfg.Validate(); err != nil {
				t.Errorf("expected chain mode %q to validate, got %v", mode, err)
			}
		}
	})

	t.Run("empty interface returns ErrInvalidInterfaceName", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.VPN.Interface = ""

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidInterfaceName) {
			t.Errorf("expected ErrInvalidInterfaceName, got %v", err)
		}
	})

	t.Run("interface with path separator returns ErrInvalidInterfaceName", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.VPN.Interface = "../../etc/shadow"

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidInterfaceName) {
			t.Errorf("expected ErrInvalidInterfaceName, got %v", err)
		}
	})

	t.Run("json and markdown both enabled returns ErrConflictingReportFormats", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true

		err := cfg.Validate()
		if !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("json only is valid", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.JSONReport = true

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("markdown only is valid", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.MarkdownReport = true

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestFileApply tests merging a configuration file into a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("empty file keeps all defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		want := NewConfig()

		var cf File
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Tor.SocksPort != want.Tor.SocksPort {
			t.Errorf("expected SocksPort %d, got %d", want.Tor.SocksPort, cfg.Tor.SocksPort)
		}
		if cfg.Proxychains.ChainMode != want.Proxychains.ChainMode {
			t.Errorf("expected ChainMode %q, got %q", want.Proxychains.ChainMode, cfg.Proxychains.ChainMode)
		}
		if cfg.VPN.Interface != want.VPN.Interface {
			t.Errorf("expected Interface %q, got %q", want.VPN.Interface, cfg.VPN.Interface)
		}
	})

	t.Run("set fields override defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cf := File{
			Snapshot: SnapshotSection{Dir: "/var/lib/anonsetup/snapshots", Keep: 5},
			Tor: TorSection{
				SocksPort:         9150,
				Bridges:           []string{"obfs4 192.0.2.1:443 FINGERPRINT"},
				ProxyCheckTimeout: "45s",
			},
			VPN: VPNSection{Interface: "wg1"},
		}

		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Snapshot.Dir != "/var/lib/anonsetup/snapshots" {
			t.Errorf("expected snapshot dir override, got %q", cfg.Snapshot.Dir)
		}
		if cfg.Snapshot.Keep != 5 {
			t.Errorf("expected Keep 5, got %d", cfg.Snapshot.Keep)
		}
		if cfg.Tor.SocksPort != 9150 {
			t.Errorf("expected SocksPort 9150, got %d", cfg.Tor.SocksPort)
		}
		if len(cfg.Tor.Bridges) != 1 {
			t.Errorf("expected 1 bridge, got %d", len(cfg.Tor.Bridges))
		}
		if cfg.Tor.ProxyCheckTimeout != 45*time.Second {
			t.Errorf("expected ProxyCheckTimeout 45s, got %v", cfg.Tor.ProxyCheckTimeout)
		}
		if cfg.VPN.Interface != "wg1" {
			t.Errorf("expected Interface wg1, got %q", cfg.VPN.Interface)
		}

		// Fields the file did not set keep their defaults.
		if cfg.Tor.TransPort != DefaultTransPort {
			t.Errorf("expected default TransPort, got %d", cfg.Tor.TransPort)
		}
		if cfg.Proxychains.ChainMode != DefaultChainMode {
			t.Errorf("expected default ChainMode, got %q", cfg.Proxychains.ChainMode)
		}
	})

	t.Run("invalid duration returns error", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cf := File{Tor: TorSection{ProxyCheckTimeout: "soon"}}

		if err := cf.Apply(cfg); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("watched files replace the default set", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cf := File{WatchedFiles: []string{"/etc/tor/torrc"}}

		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.WatchedFiles) != 1 || cfg.WatchedFiles[0] != "/etc/tor/torrc" {
			t.Errorf("expected watched files to be replaced, got %v", cfg.WatchedFiles)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile("/nonexistent/path/anonsetup.yaml")
		if err == nil {
			t.Fatal("expected error for non-existent file")
		}
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cf != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "anonsetup.yaml")

		content := `snapshot:
  dir: /var/lib/anonsetup/snapshots
  keep: 10
tor:
  socks_port: 9150
  unit: tor@default
  proxy_check_timeout: 1m
proxychains:
  chain_mode: strict_chain
vpn:
  interface: wg1
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Snapshot.Dir != "/var/lib/anonsetup/snapshots" {
			t.Errorf("expected snapshot dir, got %q", cf.Snapshot.Dir)
		}
		if cf.Snapshot.Keep != 10 {
			t.Errorf("expected keep 10, got %d", cf.Snapshot.Keep)
		}
		if cf.Tor.SocksPort != 9150 {
			t.Errorf("expected socks port 9150, got %d", cf.Tor.SocksPort)
		}
		if cf.Tor.Unit != "tor@default" {
			t.Errorf("expected unit tor@default, got %q", cf.Tor.Unit)
		}
		if cf.Tor.ProxyCheckTimeout != "1m" {
			t.Errorf("expected raw duration string, got %q", cf.Tor.ProxyCheckTimeout)
		}
		if cf.Proxychains.ChainMode != "strict_chain" {
			t.Errorf("expected strict_chain, got %q", cf.Proxychains.ChainMode)
		}
		if cf.VPN.Interface != "wg1" {
			t.Errorf("expected wg1, got %q", cf.VPN.Interface)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "anonsetup.yaml")

		content := `invalid: yaml: content: [}`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("loaded file applies cleanly to defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "anonsetup.yaml")

		content := `tor:
  dns_port: 53
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Tor.DNSPort != 53 {
			t.Errorf("expected DNSPort 53, got %d", cfg.Tor.DNSPort)
		}
		if cfg.Tor.SocksPort != DefaultSocksPort {
			t.Errorf("expected default SocksPort, got %d", cfg.Tor.SocksPort)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "custom.yaml")

		if err := os.WriteFile(configPath, []byte("tor: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		result := FindConfigFile(configPath)
		if result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		result := FindConfigFile("/nonexistent/path/config.yaml")
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("returns empty when no config found", func(_ *testing.T) {
		result := FindConfigFile("")
		// This may or may not find a config depending on the system
		// Just ensure it doesn't panic
		_ = result
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGDataDir()
		if dir == "" {
			t.Error("expected non-empty XDG data dir")
		}
	})

	t.Run("XDGConfigDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGConfigDir()
		if dir == "" {
			t.Error("expected non-empty XDG config dir")
		}
	})

	t.Run("DefaultLockFile returns non-empty path", func(t *testing.T) {
		t.Parallel()

		path := DefaultLockFile()
		if path == "" {
			t.Error("expected non-empty lock file path")
		}
	})
}
