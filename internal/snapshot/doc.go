// Package snapshot captures and restores the host state a setup flow may
// touch: the watched configuration files and the dpkg package selection
// list. Each snapshot is a directory named by a sortable timestamp ID
// holding verbatim file copies, the selection list and a manifest with
// SHA3-256 digests. Restore verifies every digest before writing a single
// byte back, so a corrupted snapshot can never half-apply.
package snapshot
