// Package config provides configuration structures and utilities for anonsetup.
// It defines the defaults for the tor, proxychains and vpn flows, the snapshot
// store settings, and the optional YAML configuration file that overrides them.
package config
