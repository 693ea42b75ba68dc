// Package validator checks candidate configuration files against a
// required-section/key grammar before they are installed on the system.
//
// Validation is structural acceptance or rejection: a file is accepted when
// every required "[Section]" header exists and every required key appears
// under it, and rejected with a specific reason otherwise. Extra sections,
// keys and comments never cause rejection, and the candidate file is never
// modified.
//
// The package also carries the WireGuard-specific checks the vpn flow needs:
// the interface file grammar, base64 key validation and public key
// derivation, so a user-supplied file is proven sound before it touches
// /etc/wireguard.
package validator
