// Package main provides the entry point for the anonsetup CLI.
//
// anonsetup configures a Debian host for anonymous networking: Tor
// transparent routing, proxychains and WireGuard, each applied as one
// transaction that is rolled back completely if any step fails.
//
// Usage:
//
//	anonsetup tor
//	anonsetup vpn wg0.conf
//
// See --help for all available options.
package main

// main is the entry point for anonsetup.
func main() {
	Execute()
}
