// Package flow assembles the setup flows as transaction step lists.
//
// A flow builder (Tor, Proxychains, VPN) turns resolved configuration
// into an ordered []transaction.Step; the transaction controller is the
// only thing that executes them. Flows decide what to do, the editor,
// validator, system and tor packages are the mechanism.
//
// Every flow is idempotent: running it against an already configured
// host changes nothing and commits cleanly.
package flow
