// Package tor verifies that the locally configured Tor daemon answers on
// its SOCKS5 port. The tor setup flow uses it as the final check after
// rewriting torrc and restarting the unit, and the status command probes
// through it. The check speaks real SOCKS5 rather than matching banner
// strings, so another service squatting on the port cannot pass.
package tor
